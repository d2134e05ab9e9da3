package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/recordkit"
	"github.com/syssam/recordkit/record"
)

// queryOptions holds the flags of the query command.
type queryOptions struct {
	exprs     []string
	args      []string
	compactBy []string
	stackBy   []string
	stack     []string
	assignBy  string
	overwrite bool
	objects   bool
	parallel  int
}

func newQueryCommand() *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run queries and print their records",
		Long: `Run one or more queries and print their records.

Every query gets its own stream and its own transformer. Several queries
run concurrently and are printed in the order they were given. Rows must be
ordered by the fold keys when --compact-by, --stack-by or --assign-by is
used.`,
		Example: `  # Print users as JSON
  recordkit query "SELECT id, name FROM users"

  # One record per user with all its tags
  recordkit query --stack-by id --stack tag \
    -e "SELECT u.id, u.name, t.tag FROM users u JOIN tags t ON t.user_id = u.id ORDER BY u.id"

  # Settings as a single record
  recordkit query --assign-by key:value -e "SELECT key, value FROM settings"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.exprs = append([]string{args[0]}, opts.exprs...)
			}
			return runQuery(cmd, opts)
		},
	}
	cmd.Flags().StringArrayVarP(&opts.exprs, "execute", "e", nil, "Query to run (repeatable)")
	cmd.Flags().StringArrayVar(&opts.args, "arg", nil, "Positional query argument (repeatable, shared by all queries)")
	cmd.Flags().StringSliceVar(&opts.compactBy, "compact-by", nil, "Merge consecutive rows with equal key fields")
	cmd.Flags().StringSliceVar(&opts.stackBy, "stack-by", nil, "Collect --stack fields of consecutive rows with equal key fields")
	cmd.Flags().StringSliceVar(&opts.stack, "stack", nil, "Fields collected by --stack-by")
	cmd.Flags().StringVar(&opts.assignBy, "assign-by", "", "Fold all rows into one record, key:name[:multi,...]")
	cmd.Flags().BoolVar(&opts.overwrite, "overwrite", false, "Let later null values overwrite earlier ones")
	cmd.Flags().BoolVar(&opts.objects, "objects", false, "Convert column values through the mapper chain")
	cmd.Flags().IntVar(&opts.parallel, "parallel", 4, "Maximum number of queries running at once")
	return cmd
}

// transformers returns a constructor for the transformers of one stream,
// in application order. It validates the configuration once up front.
func (o *queryOptions) transformers() (func() ([]record.Transformer, error), error) {
	var fold []record.Option
	if o.overwrite {
		fold = append(fold, record.WithOverwrite())
	}
	var assign []string
	if o.assignBy != "" {
		parts := strings.SplitN(o.assignBy, ":", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid --assign-by %q, want key:name[:multi,...]", o.assignBy)
		}
		assign = parts
	}
	if len(o.stack) > 0 && len(o.stackBy) == 0 {
		return nil, errors.New("--stack requires --stack-by")
	}
	build := func() ([]record.Transformer, error) {
		var ts []record.Transformer
		if len(o.compactBy) > 0 {
			t, err := record.NewCompactBy(o.compactBy, fold...)
			if err != nil {
				return nil, err
			}
			ts = append(ts, t)
		}
		if len(o.stackBy) > 0 {
			t, err := record.NewStackBy(o.stackBy, o.stack, fold...)
			if err != nil {
				return nil, err
			}
			ts = append(ts, t)
		}
		if assign != nil {
			var multi []string
			if len(assign) == 3 && assign[2] != "" {
				multi = strings.Split(assign[2], ",")
			}
			t, err := record.NewAssignBy(assign[0], assign[1], multi...)
			if err != nil {
				return nil, err
			}
			ts = append(ts, t)
		}
		return ts, nil
	}
	if _, err := build(); err != nil {
		return nil, err
	}
	return build, nil
}

func runQuery(cmd *cobra.Command, opts *queryOptions) (rerr error) {
	if len(opts.exprs) == 0 {
		return errors.New("no query given, pass SQL as argument or with -e")
	}
	build, err := opts.transformers()
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { rerr = errors.Join(rerr, s.Close()) }()

	chain, err := s.cfg.Chain()
	if err != nil {
		return err
	}
	client := s.client(recordkit.WithValueMapper(chain))
	args := make([]any, len(opts.args))
	for i, a := range opts.args {
		args[i] = a
	}

	results := make([][]*record.Row, len(opts.exprs))
	g, ctx := errgroup.WithContext(s.ctx)
	if opts.parallel > 0 {
		g.SetLimit(opts.parallel)
	}
	for i, query := range opts.exprs {
		g.Go(func() error {
			ts, err := build()
			if err != nil {
				return err
			}
			rows, err := collect(ctx, client, query, args, opts.objects, ts)
			if err != nil {
				return fmt.Errorf("query #%d: %w", i+1, err)
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var out any
	if len(results) == 1 {
		out = results[0]
	} else {
		out = results
	}
	return encode(cmd.OutOrStdout(), s.cfg.Output, out, chain)
}

func collect(ctx context.Context, client *recordkit.Client, query string, args []any, objects bool, ts []record.Transformer) ([]*record.Row, error) {
	var (
		it  record.Iterator
		err error
	)
	if objects {
		it, err = client.SelectWithObjects(ctx, query, args...)
	} else {
		it, err = client.Select(ctx, query, args...)
	}
	if err != nil {
		return nil, err
	}
	rows, err := record.Collect(record.Pipe(it, ts...))
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*record.Row{}
	}
	return rows, nil
}
