package worker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/airenas/scribe/internal/pkg/persistence"
	tapi "github.com/airenas/scribe/internal/pkg/transcriber/api"
	"github.com/airenas/scribe/internal/pkg/utils"
)

type output struct {
	text       string
	diarized   string
	providerID string
}

func providerConfig(language, mode string) *tapi.Config {
	res := &tapi.Config{}
	if language == persistence.LanguageAuto {
		res.LanguageDetection = true
	} else {
		res.LanguageCode = language
	}
	switch mode {
	case persistence.ModeMono:
	case persistence.ModeDialogue:
		res.SpeakerLabels = true
		res.SpeakersExpected = 2
	default:
		res.SpeakerLabels = true
	}
	return res
}

func shapeOutput(mode string, cfg *tapi.Config, res *tapi.Result) (*output, error) {
	if res == nil {
		return nil, utils.NewErrProvider("")
	}
	if res.Status != tapi.StatusCompleted {
		return nil, utils.NewErrProvider(res.Error)
	}
	out := &output{text: res.Text, providerID: res.ID}
	if len(res.Utterances) == 0 {
		return out, nil
	}
	var err error
	if out.diarized, err = diarizedJSON(res.Utterances); err != nil {
		return nil, err
	}
	if cfg.SpeakerLabels && mode != persistence.ModeMono {
		out.text = speakerLines(res.Utterances)
	}
	return out, nil
}

func diarizedJSON(utts []tapi.Utterance) (string, error) {
	data := make([]persistence.Utterance, 0, len(utts))
	for _, u := range utts {
		data = append(data, persistence.Utterance{Speaker: u.Speaker, Start: u.Start, End: u.End, Text: u.Text})
	}
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return "", fmt.Errorf("can't marshal utterances: %w", err)
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func speakerLines(utts []tapi.Utterance) string {
	lines := make([]string, 0, len(utts))
	for _, u := range utts {
		lines = append(lines, fmt.Sprintf("Speaker %s: %s", u.Speaker, u.Text))
	}
	return strings.Join(lines, "\n")
}
