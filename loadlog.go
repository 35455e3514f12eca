package refdb

import (
	"bufio"
	"fmt"
	"os"
)

const loadLogHeader = "           Reference Library Load Log\n\n"

// loadLog is the human-readable log of what got loaded. The file is opened,
// written and closed within each operation that reports to it.
type loadLog struct {
	path    string
	enabled bool // per-file load reports; header and exit stats are always written
}

// logFile is an open load log. All methods accept a nil receiver, which
// stands for "no log".
type logFile struct {
	f *os.File
	w *bufio.Writer
}

func (l loadLog) open(flag int) *logFile {
	if l.path == "" {
		return nil
	}
	f, err := os.OpenFile(l.path, flag|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		tracer().Errorf("refdb: cannot open load log %q: %v", l.path, err)
		return nil
	}
	return &logFile{f: f, w: bufio.NewWriter(f)}
}

// openReport opens the log for a per-file load report, if enabled.
func (l loadLog) openReport() *logFile {
	if !l.enabled {
		return nil
	}
	return l.open(os.O_APPEND)
}

func (l loadLog) writeHeader() {
	lf := l.open(os.O_TRUNC)
	defer lf.close()
	lf.printf("%s", loadLogHeader)
}

func (l loadLog) writeStats(stats Stats) error {
	lf := l.open(os.O_APPEND)
	if lf == nil {
		return nil
	}
	if _, err := stats.WriteTo(lf.w); err != nil {
		lf.close()
		return fmt.Errorf("refdb: writing exit statistics: %w", err)
	}
	return lf.close()
}

func (lf *logFile) printf(format string, args ...any) {
	if lf == nil {
		return
	}
	fmt.Fprintf(lf.w, format, args...)
}

func (lf *logFile) close() error {
	if lf == nil {
		return nil
	}
	err := lf.w.Flush()
	if cerr := lf.f.Close(); err == nil {
		err = cerr
	}
	return err
}
