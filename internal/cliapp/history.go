package cliapp

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"orbit/internal/core/ports"
	"orbit/internal/data/history"
	"orbit/internal/output"
)

func runHistory(cmd *cobra.Command, global globalOptions, opts historyOptions, args []string) error {
	rt, err := loadRuntime(cmd, global, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if !rt.cfg.History.Enabled {
		return fmt.Errorf("build history is disabled in %s", rt.configPath)
	}
	store, err := history.Open(rt.paths.HistoryDB, rt.cfg.History.BusyTimeout)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	project := rt.paths.ProjectDir

	if len(args) == 0 {
		sessions, err := store.Sessions(project, opts.limit)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Fprintf(out, "no builds recorded for %s\n", project)
			return nil
		}
		if opts.tsv {
			writeSessionsTSV(out, sessions)
		} else {
			writeSessionsTable(out, sessions)
		}
		return nil
	}

	sessions, err := store.Sessions(project, 0)
	if err != nil {
		return err
	}
	sess, err := findSession(sessions, args[0])
	if err != nil {
		return err
	}
	rows, err := store.CrateDurations(sess.ID)
	if err != nil {
		return err
	}
	if opts.tsv {
		_, err := io.WriteString(out, output.GenerateCrateDurations(rows))
		return err
	}
	writeDurationsTable(out, sess, rows)
	return nil
}

// findSession resolves a full or abbreviated session id. An ambiguous
// prefix is an error.
func findSession(sessions []ports.Session, id string) (ports.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ports.Session{}, fmt.Errorf("session id must not be empty")
	}
	var matches []ports.Session
	for _, s := range sessions {
		if s.ID == id {
			return s, nil
		}
		if strings.HasPrefix(s.ID, id) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return ports.Session{}, fmt.Errorf("no build session matches %q", id)
	case 1:
		return matches[0], nil
	default:
		return ports.Session{}, fmt.Errorf("session id %q is ambiguous (%d matches)", id, len(matches))
	}
}

func sessionOutcome(s ports.Session) string {
	switch {
	case s.FinishedAt.IsZero():
		return "incomplete"
	case s.Success:
		return "ok"
	default:
		return "failed"
	}
}

func writeSessionsTable(w io.Writer, sessions []ports.Session) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Session", "Started", "Duration", "Result", "Compiled", "Command"})
	for _, s := range sessions {
		t.AppendRow(table.Row{
			shortID(s.ID),
			s.StartedAt.Local().Format(time.DateTime),
			s.Duration().Round(time.Millisecond),
			sessionOutcome(s),
			fmt.Sprintf("%d/%d", s.Finished, s.Started),
			s.Command,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Compiled", Align: text.AlignRight},
	})
	t.Render()
}

func writeSessionsTSV(w io.Writer, sessions []ports.Session) {
	fmt.Fprintln(w, "Session\tStarted\tSeconds\tResult\tStarted\tFinished\tCommand")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%.3f\t%s\t%d\t%d\t%s\n",
			s.ID,
			s.StartedAt.Format(time.RFC3339Nano),
			s.Duration().Seconds(),
			sessionOutcome(s),
			s.Started,
			s.Finished,
			s.Command,
		)
	}
}

func writeDurationsTable(w io.Writer, sess ports.Session, rows []ports.CrateDuration) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%s  %s  %s", shortID(sess.ID), sess.StartedAt.Local().Format(time.DateTime), sessionOutcome(sess)))
	t.AppendHeader(table.Row{"Crate", "Duration", "Status"})
	for _, row := range rows {
		status := "compiled"
		duration := row.Duration.Round(time.Millisecond).String()
		if row.Pending {
			status = "unfinished"
			duration = "-"
		}
		t.AppendRow(table.Row{row.Crate, duration, status})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Duration", Align: text.AlignRight},
	})
	t.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
