// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"io"
	"time"

	"github.com/featurebasedb/horuz"
	"github.com/featurebasedb/horuz/config"
	"github.com/featurebasedb/horuz/errors"
	"github.com/featurebasedb/horuz/record"
	"github.com/featurebasedb/horuz/render"
	"github.com/featurebasedb/horuz/search"
	"golang.org/x/time/rate"
)

// DefaultSearchFields are shown in table and tail output when no fields
// are given.
const DefaultSearchFields = "_id,time,session"

// DefaultTailInterval is how often tail mode polls for new documents.
const DefaultTailInterval = 2 * time.Second

// SearchCommand runs a query string search against a project.
type SearchCommand struct {
	Project string
	Query   string
	// Fields is a comma separated list of source fields to return.
	Fields string
	Size   int
	// Order is a sort such as "time:desc".
	Order string

	// Output modes. At most one may be set; the default is a paged table.
	JSON bool
	YAML bool
	Tail bool

	TailInterval time.Duration

	Config  *config.Config
	Backend search.Backend

	*horuz.CmdIO
}

// NewSearchCommand returns a new instance of SearchCommand.
func NewSearchCommand(stdin io.Reader, stdout, stderr io.Writer) *SearchCommand {
	return &SearchCommand{
		CmdIO:        horuz.NewCmdIO(stdin, stdout, stderr),
		Size:         100,
		Order:        horuz.DefaultOrder,
		TailInterval: DefaultTailInterval,
	}
}

// Run executes the search.
func (cmd *SearchCommand) Run(ctx context.Context) error {
	log := cmd.Logger()

	if err := horuz.ValidateProjectName(cmd.Project); err != nil {
		return err
	}
	modes := 0
	for _, m := range []bool{cmd.JSON, cmd.YAML, cmd.Tail} {
		if m {
			modes++
		}
	}
	if modes > 1 {
		return UsageError("--json, --yaml and --tail are mutually exclusive")
	}

	q := search.Query{
		Term:   cmd.Query,
		Sort:   []string{cmd.Order},
		Size:   cmd.Size,
		Fields: horuz.SplitList(cmd.Fields),
	}
	if cmd.Order == "" {
		q.Sort = nil
	}
	if err := q.Validate(); err != nil {
		return err
	}
	if len(q.Fields) == 0 && !cmd.JSON && !cmd.YAML {
		q.Fields = horuz.SplitList(DefaultSearchFields)
	}

	backend, err := commandBackend(cmd.Backend, cmd.Config, log)
	if err != nil {
		return err
	}
	log.Debugf("sending the query %q to elasticsearch", q.Term)

	if cmd.Tail {
		return cmd.tail(ctx, backend, q)
	}

	docs, err := backend.Search(ctx, cmd.Project, q)
	if err != nil {
		return errors.Wrap(err, "searching")
	}
	if docs == nil {
		docs = []record.Record{}
	}

	switch {
	case cmd.JSON:
		return render.JSON(cmd.Stdout, docs)
	case cmd.YAML:
		return render.YAML(cmd.Stdout, docs)
	}

	if len(docs) == 0 {
		log.Infof("no results")
		return nil
	}
	w, err := render.NewPager(cmd.Stdout)
	if err != nil {
		return err
	}
	render.FlatTable(w, record.FlattenAll(docs), render.IsTerminal(cmd.Stdout))
	return w.Close()
}

// tail polls for the newest document matching q and prints every one it
// has not printed before as a line of JSON. It returns when ctx is done.
func (cmd *SearchCommand) tail(ctx context.Context, backend search.Backend, q search.Query) error {
	log := cmd.Logger()
	q.Size = 1

	interval := cmd.TailInterval
	if interval <= 0 {
		interval = DefaultTailInterval
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	seen := make(map[string]struct{})

	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}
		docs, err := backend.Search(ctx, cmd.Project, q)
		if ctx.Err() != nil {
			return nil
		} else if errors.Is(err, horuz.ErrBackendUnavailable) {
			log.Warnf("tail: %v", err)
			continue
		} else if err != nil {
			return errors.Wrap(err, "searching")
		}
		if len(docs) == 0 {
			continue
		}

		flat := record.Flatten(docs[0])
		id := flat.Get(record.IDField)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if err := render.JSONLine(cmd.Stdout, flat); err != nil {
			return err
		}
	}
}
