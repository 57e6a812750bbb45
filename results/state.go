package results

// Mark records the length of each accumulated sequence at one point in time.
type Mark struct {
	Passing int
	Failing int
	Errors  int
	Log     int
}

// State is the dashboard's aggregate of everything observed during the
// session.
//
// Sequences are append-only and are never cleared when a new run starts;
// in watch mode they accumulate across run cycles. RunStart holds their
// lengths at the latest run start so per-run counts can be derived.
type State struct {
	Status         Status
	ElapsedSeconds int // Whole seconds since the run started; 0 unless Running
	PassingTitles  []string
	FailingTitles  []string
	Errors         []ErrorEntry
	LogLines       []string
	WatchMode      bool
	Runs           int  // Number of run starts observed
	RunStart       Mark // Sequence lengths at the latest run start

	watchSet bool
}

// NewState creates an idle state.
func NewState() *State {
	return &State{
		Status:        StatusIdle,
		PassingTitles: make([]string, 0),
		FailingTitles: make([]string, 0),
		Errors:        make([]ErrorEntry, 0),
		LogLines:      make([]string, 0),
	}
}

// BeginRun moves the state to Running with a zero elapsed time. Watch mode
// is taken from the first run start only.
func (s *State) BeginRun(watch bool) {
	if !s.watchSet {
		s.WatchMode = watch
		s.watchSet = true
	}
	s.Status = StatusRunning
	s.ElapsedSeconds = 0
	s.Runs++
	s.RunStart = s.mark()
}

// Tick adds one second of elapsed time. It only counts while Running and
// reports whether the counter moved.
func (s *State) Tick() bool {
	if s.Status != StatusRunning {
		return false
	}
	s.ElapsedSeconds++
	return true
}

// CompleteRun moves the state to Complete and zeroes the elapsed time.
func (s *State) CompleteRun() {
	s.Status = StatusComplete
	s.ElapsedSeconds = 0
}

// AppendLog appends formatted lines to the log.
func (s *State) AppendLog(lines ...string) {
	s.LogLines = append(s.LogLines, lines...)
}

// AppendError appends a single error entry.
func (s *State) AppendError(e ErrorEntry) {
	s.Errors = append(s.Errors, e)
}

// Append adds a partitioned batch to the matching sequences.
func (s *State) Append(p Partitioned) {
	s.PassingTitles = append(s.PassingTitles, p.Passing...)
	s.FailingTitles = append(s.FailingTitles, p.Failing...)
	s.Errors = append(s.Errors, p.Errors...)
}

// SinceRunStart returns how much each sequence has grown since the latest
// run start.
func (s *State) SinceRunStart() Mark {
	now := s.mark()
	return Mark{
		Passing: now.Passing - s.RunStart.Passing,
		Failing: now.Failing - s.RunStart.Failing,
		Errors:  now.Errors - s.RunStart.Errors,
		Log:     now.Log - s.RunStart.Log,
	}
}

// HasFailures reports whether any failing case or execution error was seen.
func (s *State) HasFailures() bool {
	return len(s.FailingTitles) > 0 || len(s.Errors) > 0
}

func (s *State) mark() Mark {
	return Mark{
		Passing: len(s.PassingTitles),
		Failing: len(s.FailingTitles),
		Errors:  len(s.Errors),
		Log:     len(s.LogLines),
	}
}
