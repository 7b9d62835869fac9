package calls

import "strings"

type TranscriptLine struct {
	Speaker string `json:"speaker,omitempty"`
	Text    string `json:"text"`
}

// Transcript is the ordered, speaker-tagged dialogue of a call.
type Transcript []TranscriptLine

const maxSpeakerLen = 32

// ParseTranscript reads "Speaker: text" lines. Lines without a recognizable
// speaker prefix keep an empty speaker. Blank lines are dropped.
func ParseTranscript(raw string) Transcript {
	var out Transcript
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, parseLine(line))
	}
	return out
}

func parseLine(line string) TranscriptLine {
	i := strings.Index(line, ":")
	if i <= 0 || i > maxSpeakerLen {
		return TranscriptLine{Text: line}
	}
	speaker := strings.TrimSpace(line[:i])
	if speaker == "" || strings.ContainsAny(speaker, ".?!\"") {
		return TranscriptLine{Text: line}
	}
	return TranscriptLine{Speaker: speaker, Text: strings.TrimSpace(line[i+1:])}
}

func (t Transcript) String() string {
	var b strings.Builder
	for i, l := range t {
		if i > 0 {
			b.WriteByte('\n')
		}
		if l.Speaker != "" {
			b.WriteString(l.Speaker)
			b.WriteString(": ")
		}
		b.WriteString(l.Text)
	}
	return b.String()
}

// By returns the text of every line spoken by speaker (case-insensitive).
func (t Transcript) By(speaker string) []string {
	var out []string
	for _, l := range t {
		if strings.EqualFold(l.Speaker, speaker) {
			out = append(out, l.Text)
		}
	}
	return out
}
