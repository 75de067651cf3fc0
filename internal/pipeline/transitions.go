package pipeline

import (
	"briefcast/internal/content"
)

// Kind identifies which adapter a transition runs.
type Kind string

const (
	KindTranslate      Kind = "translate"
	KindSynthesize     Kind = "synthesize"
	KindPackage        Kind = "package"
	KindUploadAudio    Kind = "upload-audio"
	KindUploadMetadata Kind = "upload-metadata"
	KindHook           Kind = "hook"
)

// Transition is one row of the static stage table. A zero To marks the
// terminal stage.
type Transition struct {
	From    content.Stage
	To      content.Stage
	Adapter Kind
}

// transitions is the full stage chain in order. The engine never regresses
// a stage; only this table decides what runs next.
var transitions = []Transition{
	{From: content.StageReviewed, To: content.StageTranslated, Adapter: KindTranslate},
	{From: content.StageTranslated, To: content.StageAudioReady, Adapter: KindSynthesize},
	{From: content.StageAudioReady, To: content.StagePackaged, Adapter: KindPackage},
	{From: content.StagePackaged, To: content.StageUploadedAudio, Adapter: KindUploadAudio},
	{From: content.StageUploadedAudio, To: content.StageUploadedMetadata, Adapter: KindUploadMetadata},
	{From: content.StageUploadedMetadata, To: content.StagePublished, Adapter: KindHook},
	{From: content.StagePublished},
}

// TransitionFor looks up the table entry for a stage.
func TransitionFor(stage content.Stage) (Transition, bool) {
	for _, t := range transitions {
		if t.From == stage {
			return t, true
		}
	}
	return Transition{}, false
}

// Transitions returns a copy of the full table, in chain order.
func Transitions() []Transition {
	cp := make([]Transition, len(transitions))
	copy(cp, transitions)
	return cp
}

// NonTerminalStages lists every stage with a successor, in chain order.
func NonTerminalStages() []content.Stage {
	var stages []content.Stage
	for _, t := range transitions {
		if t.To != "" {
			stages = append(stages, t.From)
		}
	}
	return stages
}
