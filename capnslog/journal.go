package capnslog

import (
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
)

// JournalFormatter writes log entries to the systemd journal via
// sd_journal_send, mapping LogLevel onto journal priority the way glog
// maps onto syslog severity. Use NewJournalFormatter only after checking
// journal.Enabled(); it silently drops entries if the journal socket
// is unavailable, same as the journal package itself does.
type JournalFormatter struct{}

// NewJournalFormatter returns a Formatter backed by the local systemd
// journal. Callers should fall back to NewGlogFormatter when
// journal.Enabled() reports false.
func NewJournalFormatter() *JournalFormatter {
	return &JournalFormatter{}
}

func (j *JournalFormatter) Format(pkg string, level LogLevel, _ int, entries ...LogEntry) {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(e.LogString())
	}
	journal.Send(b.String(), journalPriority(level), map[string]string{
		"SYSLOG_IDENTIFIER": pkg,
	})
}

func journalPriority(l LogLevel) journal.Priority {
	switch l {
	case CRITICAL:
		return journal.PriCrit
	case ERROR:
		return journal.PriErr
	case WARNING:
		return journal.PriWarning
	case NOTICE:
		return journal.PriNotice
	case INFO:
		return journal.PriInfo
	case DEBUG, TRACE:
		return journal.PriDebug
	default:
		return journal.PriInfo
	}
}
