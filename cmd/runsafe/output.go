package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/lox/runsafetonight/internal/client"
	"github.com/lox/runsafetonight/internal/conditions"
	"github.com/lox/runsafetonight/internal/htmlutil"
	"github.com/lox/runsafetonight/internal/presenter"
	"github.com/lox/runsafetonight/internal/probe"
	"github.com/lox/runsafetonight/internal/pulse"
	"github.com/lox/runsafetonight/internal/readiness"
)

func (a *app) newClient(offline bool) *client.Client {
	base := a.cfg.RemoteURL
	if offline {
		base = ""
	}
	return client.New(client.Options{
		BaseURL:      base,
		Location:     a.cfg.Location,
		TimeLocation: a.cfg.TimeLocation(a.logger),
	}, a.logger)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type ConditionsCmd struct {
	Remote bool `help:"Fetch from the deployed site, falling back to local generation."`
	JSON   bool `name:"json" help:"Print the API payload."`
}

func (c *ConditionsCmd) Run(a *app, ctx context.Context) error {
	report, source := a.newClient(!c.Remote).Conditions(ctx)
	if c.JSON {
		return writeJSON(os.Stdout, report)
	}
	return printConditions(os.Stdout, report, source)
}

func printConditions(w io.Writer, r conditions.Report, source client.Source) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Conditions for %s (%s)\n", r.Location, source)
	fmt.Fprintf(tw, "  Sunset\t%s\n", r.Sunset)
	fmt.Fprintf(tw, "  Temperature\t%d°F\n", r.TemperatureF)
	fmt.Fprintf(tw, "  Wind\t%d mph\n", r.WindMph)
	fmt.Fprintf(tw, "  Visibility\t%s\n", r.Visibility)
	fmt.Fprintf(tw, "  Moon\t%s\n", r.Moon)
	fmt.Fprintf(tw, "  Streets\t%s\n", r.StreetActivity)
	fmt.Fprintf(tw, "\n%s\n", r.Verdict)
	for _, tip := range r.Tips {
		fmt.Fprintf(tw, "  - %s\n", tip)
	}
	return tw.Flush()
}

type PulseCmd struct {
	Remote bool `help:"Fetch from the deployed site, falling back to local generation."`
	JSON   bool `name:"json" help:"Print the API payload."`
}

func (c *PulseCmd) Run(a *app, ctx context.Context) error {
	snap, source := a.newClient(!c.Remote).Pulse(ctx)
	if c.JSON {
		return writeJSON(os.Stdout, snap)
	}
	return printPulse(os.Stdout, snap, source)
}

func printPulse(w io.Writer, s pulse.Snapshot, source client.Source) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Community pulse (%s)\n", source)
	fmt.Fprintf(tw, "  Runners tonight\t%d\n", s.Stats.RunnersTonight)
	fmt.Fprintf(tw, "  Routes this week\t%d\n", s.Stats.RoutesThisWeek)
	fmt.Fprintf(tw, "  Safety notes\t%d\n", s.Stats.SafetyNotes)
	fmt.Fprintf(tw, "  Group runs tonight\t%d\n", s.Stats.GroupRunsTonight)
	fmt.Fprintln(tw)
	for _, item := range s.Feed {
		fmt.Fprintf(tw, "  [%s]\t%s\t%s\n", item.Category, htmlutil.ToText(item.Text), item.TimeLabel())
	}
	return tw.Flush()
}

type DashboardCmd struct {
	Offline bool          `help:"Skip the deployed site and render local data."`
	Timeout time.Duration `default:"10s" help:"Give up on the deployed site after this long."`
}

func (c *DashboardCmd) Run(a *app, ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	page := presenter.LandingPage()
	ctrl := presenter.New(page, presenter.NewBus(), a.newClient(c.Offline), presenter.Options{
		ReducedMotion: true,
	}, a.logger)
	ctrl.Start(ctx)
	ctrl.Wait()
	ctrl.Stop()

	return presenter.WriteText(os.Stdout, page)
}

type ReadinessCmd struct {
	Answers []string `arg:"" optional:"" help:"Answers in question order, e.g. veteran yes full always confident."`
	JSON    bool     `name:"json" help:"Print the API payload."`
}

func (c *ReadinessCmd) Run(a *app) error {
	if len(c.Answers) > readiness.NumQuestions {
		return fmt.Errorf("expected at most %d answers, got %d", readiness.NumQuestions, len(c.Answers))
	}

	state := readiness.NewState()
	for _, answer := range c.Answers {
		q, _ := readiness.QuestionFor(state.Step)
		if !validOption(q, answer) {
			return fmt.Errorf("question %d: %q is not one of %s", q.Number, answer, optionValues(q))
		}
		next, err := state.Select(answer)
		if err != nil {
			return err
		}
		state = next
	}

	result := state.Result()
	if c.JSON {
		return writeJSON(os.Stdout, result)
	}
	fmt.Printf("Score: %d/100 (%s)\n%s\n\n", result.Score, result.Tier, result.Feedback)
	for _, rec := range result.Recommendations {
		fmt.Printf("%s %s: %s\n   %s\n", rec.Icon, rec.Title, rec.Description, rec.Link)
	}
	return nil
}

func validOption(q readiness.Question, value string) bool {
	for _, opt := range q.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

func optionValues(q readiness.Question) string {
	values := make([]string, 0, len(q.Options))
	for _, opt := range q.Options {
		values = append(values, opt.Value)
	}
	return strings.Join(values, ", ")
}

type ProbeCmd struct {
	URL     string        `help:"Base URL to probe, overriding REMOTE_URL."`
	Timeout time.Duration `default:"2m" help:"Give up after this long."`
}

func (c *ProbeCmd) Run(a *app, ctx context.Context) error {
	target := a.cfg.RemoteURL
	if c.URL != "" {
		target = c.URL
	}

	p := probe.New(nil, a.logger)
	p.MaxElapsed = c.Timeout
	health, err := p.Wait(ctx, target)
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, health)
}
