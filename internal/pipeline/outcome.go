package pipeline

// Outcome is the terminal state of one message.
type Outcome int

const (
	NotApplication Outcome = iota
	TooOld
	NoTitle
	Duplicate
	Processed
	WriteError
)

func (o Outcome) String() string {
	switch o {
	case NotApplication:
		return "not_application"
	case TooOld:
		return "too_old"
	case NoTitle:
		return "no_title"
	case Duplicate:
		return "duplicate"
	case Processed:
		return "processed"
	case WriteError:
		return "write_error"
	default:
		return "unknown"
	}
}

// Flagged reports whether the message is marked processed in the mailbox.
// NoTitle and WriteError stay unflagged and are seen again next run.
func (o Outcome) Flagged() bool {
	switch o {
	case TooOld, Duplicate, Processed:
		return true
	}
	return false
}

// Summary counts outcomes for one account.
type Summary struct {
	Fetched        int
	NotApplication int
	TooOld         int
	NoTitle        int
	Duplicate      int
	Processed      int
	WriteError     int
	FlagFailures   int
}

func (s *Summary) add(o Outcome) {
	switch o {
	case NotApplication:
		s.NotApplication++
	case TooOld:
		s.TooOld++
	case NoTitle:
		s.NoTitle++
	case Duplicate:
		s.Duplicate++
	case Processed:
		s.Processed++
	case WriteError:
		s.WriteError++
	}
}

// Merge adds o's counts into s.
func (s *Summary) Merge(o Summary) {
	s.Fetched += o.Fetched
	s.NotApplication += o.NotApplication
	s.TooOld += o.TooOld
	s.NoTitle += o.NoTitle
	s.Duplicate += o.Duplicate
	s.Processed += o.Processed
	s.WriteError += o.WriteError
	s.FlagFailures += o.FlagFailures
}
