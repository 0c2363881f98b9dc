package worker

import (
	"testing"

	tapi "github.com/airenas/scribe/internal/pkg/transcriber/api"
	"github.com/airenas/scribe/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_providerConfig(t *testing.T) {
	tests := []struct {
		language string
		mode     string
		want     *tapi.Config
	}{
		{language: "en", mode: "mono", want: &tapi.Config{LanguageCode: "en"}},
		{language: "auto", mode: "mono", want: &tapi.Config{LanguageDetection: true}},
		{language: "lt", mode: "dialogue", want: &tapi.Config{LanguageCode: "lt", SpeakerLabels: true, SpeakersExpected: 2}},
		{language: "auto", mode: "multi", want: &tapi.Config{LanguageDetection: true, SpeakerLabels: true}},
	}
	for _, tt := range tests {
		t.Run(tt.language+"-"+tt.mode, func(t *testing.T) {
			assert.Equal(t, tt.want, providerConfig(tt.language, tt.mode))
		})
	}
}

func Test_shapeOutput(t *testing.T) {
	utts := []tapi.Utterance{{Speaker: "A", Start: 1, End: 2, Text: "<hi>"}, {Speaker: "B", Start: 3, End: 4, Text: "ačiū"}}
	tests := []struct {
		name         string
		mode         string
		res          *tapi.Result
		wantText     string
		wantDiarized string
	}{
		{name: "Mono", mode: "mono", res: &tapi.Result{ID: "1", Status: tapi.StatusCompleted, Text: "olia"},
			wantText: "olia"},
		{name: "Mono with utterances", mode: "mono", res: &tapi.Result{ID: "1", Status: tapi.StatusCompleted,
			Text: "olia", Utterances: utts}, wantText: "olia",
			wantDiarized: `[{"speaker":"A","start":1,"end":2,"text":"<hi>"},{"speaker":"B","start":3,"end":4,"text":"ačiū"}]`},
		{name: "Dialogue", mode: "dialogue", res: &tapi.Result{ID: "1", Status: tapi.StatusCompleted,
			Text: "olia", Utterances: utts}, wantText: "Speaker A: <hi>\nSpeaker B: ačiū",
			wantDiarized: `[{"speaker":"A","start":1,"end":2,"text":"<hi>"},{"speaker":"B","start":3,"end":4,"text":"ačiū"}]`},
		{name: "Dialogue no utterances", mode: "dialogue", res: &tapi.Result{ID: "1", Status: tapi.StatusCompleted,
			Text: "olia"}, wantText: "olia"},
		{name: "Multi", mode: "multi", res: &tapi.Result{ID: "1", Status: tapi.StatusCompleted,
			Utterances: utts[:1]}, wantText: "Speaker A: <hi>",
			wantDiarized: `[{"speaker":"A","start":1,"end":2,"text":"<hi>"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := shapeOutput(tt.mode, providerConfig("en", tt.mode), tt.res)
			require.Nil(t, err)
			assert.Equal(t, tt.wantText, got.text)
			assert.Equal(t, tt.wantDiarized, got.diarized)
			assert.Equal(t, "1", got.providerID)
		})
	}
}

func Test_shapeOutput_Fail(t *testing.T) {
	_, err := shapeOutput("mono", providerConfig("en", "mono"), &tapi.Result{Status: tapi.StatusError, Error: "olia"})
	assert.Equal(t, utils.KindProvider, utils.KindOf(err))
	assert.Equal(t, "olia", err.Error())
	_, err = shapeOutput("mono", providerConfig("en", "mono"), nil)
	assert.Equal(t, utils.KindProvider, utils.KindOf(err))
}
