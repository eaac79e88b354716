package stages

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"songforge/internal/artifact"
	"songforge/internal/song"
	"songforge/internal/stage"
)

// Compose assembles the finished bundle from every upstream artifact
// and embeds their hashes so the bundle is self-describing about its
// provenance.
type Compose struct{}

// NewCompose constructs the compose stage.
func NewCompose() *Compose { return &Compose{} }

// Name implements stage.Handler.
func (c *Compose) Name() string { return StageCompose }

// Run implements stage.Handler.
func (c *Compose) Run(_ context.Context, in stage.Input) (*artifact.Artifact, error) {
	plan, err := stage.UpstreamPayload[song.Plan](in, StagePlan)
	if err != nil {
		return nil, err
	}
	style, err := stage.UpstreamPayload[song.StyleSheet](in, StageStyle)
	if err != nil {
		return nil, err
	}
	lyrics, err := stage.UpstreamPayload[song.LyricSheet](in, StageLyrics)
	if err != nil {
		return nil, err
	}
	production, err := stage.UpstreamPayload[song.Production](in, StageProducer)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Spec.Title)
	if title == "" {
		title = titleFromThemes(in.Spec.Themes)
	}
	title = cases.Title(language.English).String(title)

	hashes := make(map[string]string, len(in.Upstream))
	for name, art := range in.Upstream {
		hashes[name] = art.Hash
	}

	payload := song.Bundle{
		Title:       title,
		Genre:       in.Spec.Genre,
		Plan:        plan,
		Style:       style,
		Lyrics:      lyrics,
		Production:  production,
		StageHashes: hashes,
	}
	return artifact.New(StageCompose, in.Context.StageIndex, in.Context.FixIteration, payload)
}

func titleFromThemes(themes []string) string {
	if len(themes) == 0 {
		return "untitled"
	}
	if len(themes) == 1 {
		return themes[0]
	}
	return themes[0] + " and " + themes[1]
}
