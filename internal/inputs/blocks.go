package inputs

import "strings"

// StopVerdict tells the block scanner what to do with the current line.
type StopVerdict int

const (
	Continue    StopVerdict = iota
	StopInclude             // capture the line, then stop
	StopExclude             // stop before the line
)

// ExtractBlock scans lines in order and captures from the first line whose
// trimmed text equals startPhrase until the stop function ends the block.
// Both CCR and CHR generation go through this one primitive so their block
// semantics cannot drift apart.
func ExtractBlock(lines []string, startPhrase string, stop func(string) StopVerdict) string {
	var b strings.Builder
	capturing := false
	for _, line := range lines {
		t := strings.TrimSpace(line)
		if !capturing {
			if t == startPhrase {
				capturing = true
				b.WriteString(line)
				b.WriteByte('\n')
			}
			continue
		}
		switch stop(line) {
		case StopExclude:
			return b.String()
		case StopInclude:
			b.WriteString(line)
			b.WriteByte('\n')
			return b.String()
		default:
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// StopOnEnd terminates a running-config block at its "end" line, keeping it.
func StopOnEnd(line string) StopVerdict {
	if strings.ToLower(strings.TrimSpace(line)) == "end" {
		return StopInclude
	}
	return Continue
}

// StopOnNextShow terminates a block just before the next show command that
// is not the block's own start phrase.
func StopOnNextShow(startPhrase string) func(string) StopVerdict {
	return func(line string) StopVerdict {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "show") && t != startPhrase {
			return StopExclude
		}
		return Continue
	}
}
