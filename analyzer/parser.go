package analyzer

import (
	"bytes"
	"strings"
)

// Stdout markers emitted by the analyzer script. Everything else on the
// stream is human-readable progress and is ignored.
const (
	markerExtracted = "Extracted information:"
	markerGenerated = "Generated new filename:"
	markerRenamed   = "File renamed successfully to:"
)

// OutputParser incrementally extracts the structured fields from the
// analyzer's stdout. Each write re-scans the entire accumulated buffer, so
// a marker split across two reads is still recognized once its second half
// arrives.
type OutputParser struct {
	buf           bytes.Buffer
	extractedInfo string
	newFilename   string
}

func NewOutputParser() *OutputParser {
	return &OutputParser{}
}

// Write accumulates a stdout chunk and updates the captured fields. It
// never fails, which lets the stdout drain use io.Copy directly.
func (p *OutputParser) Write(chunk []byte) (int, error) {
	p.buf.Write(chunk)
	p.scan()
	return len(chunk), nil
}

func (p *OutputParser) scan() {
	out := p.buf.String()

	if i := strings.Index(out, markerExtracted); i >= 0 {
		rest := out[i+len(markerExtracted):]
		if j := strings.Index(rest, markerGenerated); j >= 0 {
			p.extractedInfo = strings.TrimSpace(rest[:j])
		} else {
			p.extractedInfo = strings.TrimSpace(rest)
		}
	}

	if i := strings.Index(out, markerGenerated); i >= 0 {
		rest := out[i+len(markerGenerated):]
		if j := strings.Index(rest, markerRenamed); j >= 0 {
			p.newFilename = strings.TrimSpace(rest[:j])
		} else {
			p.newFilename = strings.TrimSpace(rest)
		}
	}

	// The analyzer may rename the file on disk and report the final name
	// afterwards; that report wins over the generated candidate.
	if i := strings.Index(out, markerRenamed); i >= 0 {
		p.newFilename = strings.TrimSpace(out[i+len(markerRenamed):])
	}
}

// Result returns the fields captured so far. Empty strings mean the
// corresponding marker never appeared.
func (p *OutputParser) Result() Outcome {
	return Outcome{
		ExtractedInfo: p.extractedInfo,
		NewFilename:   p.newFilename,
	}
}
