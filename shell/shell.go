// Package shell is the interactive console of an int keyed red-black tree.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/benz9527/xrbtree/lib/infra"
	"github.com/benz9527/xrbtree/lib/tree"
	"github.com/benz9527/xrbtree/observability"
	"github.com/benz9527/xrbtree/report"
	"github.com/benz9527/xrbtree/xlog"
)

// errInputClosed stops the loop once the input reaches EOF.
var errInputClosed = errors.New("shell input closed")

const menu = `
+------------------------------------------+
|                   MENU                   |
+------------------------------------------+
| 1. Insert value                          |
| 2. Remove value                          |
| 3. Search value                          |
| 4. Show statistics                       |
| 5. Insert multiple values                |
| 6. Clear tree                            |
| 0. Exit                                  |
+------------------------------------------+
Choose an option: `

type Shell struct {
	tree   tree.RBTree[int]
	in     *bufio.Reader
	out    io.Writer
	logger xlog.XLogger
	stats  *observability.TreeStats
}

// New returns a shell reading commands from in. The logger and stats
// may be nil.
func New(
	t tree.RBTree[int],
	in io.Reader,
	out io.Writer,
	logger xlog.XLogger,
	stats *observability.TreeStats,
) *Shell {
	return &Shell{
		tree:   t,
		in:     bufio.NewReader(in),
		out:    out,
		logger: logger,
		stats:  stats,
	}
}

func (s *Shell) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) println(line string) {
	_, _ = io.WriteString(s.out, line+"\n")
}

func (s *Shell) debug(msg string, fields ...zap.Field) {
	if s.logger != nil {
		s.logger.Debug(msg, fields...)
	}
}

// readLine has no line length limit, a bulk insert line may be long.
// The last line is accepted without a trailing newline.
func (s *Shell) readLine() (string, error) {
	line, err := s.in.ReadString('\n')
	if err == nil || (errors.Is(err, io.EOF) && len(line) > 0) {
		return strings.TrimRight(line, "\r\n"), nil
	}
	if errors.Is(err, io.EOF) {
		return "", errInputClosed
	}
	return "", infra.WrapErrorStack(err, "read shell input")
}

// readValue asks again until a valid integer is read.
func (s *Shell) readValue(prompt string) (int, error) {
	for {
		s.printf("%s", prompt)
		line, err := s.readLine()
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(strings.TrimSpace(line))
		if err == nil {
			return v, nil
		}
		s.println("Please enter a valid integer number.")
	}
}

// Run loops until the exit option, the input EOF or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	err := s.loop(ctx)
	if errors.Is(err, errInputClosed) {
		s.debug("shell input closed")
		return nil
	}
	return err
}

func (s *Shell) loop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.printf("%s", menu)
		line, err := s.readLine()
		if err != nil {
			return err
		}
		option, convErr := strconv.Atoi(strings.TrimSpace(line))
		if convErr != nil {
			option = -1
		}

		switch option {
		case 1:
			err = s.insertValue(ctx)
		case 2:
			err = s.removeValue(ctx)
		case 3:
			err = s.searchValue(ctx)
		case 4:
			s.showStatistics()
		case 5:
			err = s.insertMultipleValues(ctx)
		case 6:
			err = s.clearTree()
		case 0:
			s.println("Bye.")
			return nil
		default:
			s.println("Invalid option! Please try again.")
		}
		if err != nil {
			return err
		}

		s.println("\nPress Enter to continue...")
		if _, err = s.readLine(); err != nil {
			return err
		}
	}
}

func (s *Shell) insertValue(ctx context.Context) error {
	s.println("\n=== INSERTION ===")
	v, err := s.readValue("Enter the value to insert: ")
	if err != nil {
		return err
	}
	ok := s.tree.Insert(v)
	s.stats.Inserted(ctx, ok)
	s.debug("insert", zap.Int("key", v), zap.Bool("inserted", ok))
	if !ok {
		s.printf("Value %d already exists in the tree!\n", v)
		return nil
	}
	s.printf("Value %d inserted successfully!\n", v)
	s.showQuickStatistics()
	return nil
}

func (s *Shell) removeValue(ctx context.Context) error {
	s.println("\n=== REMOVAL ===")
	if s.tree.Len() == 0 {
		s.println("The tree is empty! No elements to remove.")
		return nil
	}
	s.showQuickStatistics()
	v, err := s.readValue("Enter the value to remove: ")
	if err != nil {
		return err
	}
	ok := s.tree.Delete(v)
	s.stats.Deleted(ctx, ok)
	s.debug("delete", zap.Int("key", v), zap.Bool("deleted", ok))
	if !ok {
		s.printf("Value %d not found in the tree!\n", v)
		return nil
	}
	s.printf("Value %d removed successfully!\n", v)
	s.showQuickStatistics()
	return nil
}

func (s *Shell) searchValue(ctx context.Context) error {
	s.println("\n=== SEARCH ===")
	if s.tree.Len() == 0 {
		s.println("The tree is empty! No elements to search.")
		return nil
	}
	s.showQuickStatistics()
	v, err := s.readValue("Enter the value to search: ")
	if err != nil {
		return err
	}
	node := s.tree.Search(v)
	s.stats.Searched(ctx, node != nil)
	s.debug("search", zap.Int("key", v), zap.Bool("hit", node != nil))
	if node == nil {
		s.printf("Value %d not found in the tree!\n", v)
		return nil
	}
	s.printf("Value %d found!\n", v)
	s.printf("  Node color: %s\n", node.Color())
	if p := node.Parent(); p != nil {
		s.printf("  Parent: %d\n", p.Key())
	} else {
		s.println("  This is the root node!")
	}
	if l := node.Left(); l != nil {
		s.printf("  Left child: %d\n", l.Key())
	}
	if r := node.Right(); r != nil {
		s.printf("  Right child: %d\n", r.Key())
	}
	return nil
}

func (s *Shell) showStatistics() {
	s.println("\n=== TREE STATISTICS ===")
	st := report.Collect[int](s.tree.Root())
	if st.Empty {
		s.println("The tree is empty!")
		return
	}
	s.printf("Total nodes: %d\n", st.Nodes)
	s.printf("Red nodes: %d\n", st.Red)
	s.printf("Black nodes: %d\n", st.Black)
	s.printf("Tree height: %d\n", st.Height)
	s.printf("Black height: %d\n", report.BlackHeight[int](s.tree.Root()))
	s.printf("Root: %d (%s)\n", st.Root, st.RootColor)
	s.printf("Smallest value: %d\n", st.Min)
	s.printf("Largest value: %d\n", st.Max)
}

func (s *Shell) insertMultipleValues(ctx context.Context) error {
	s.println("\n=== MULTIPLE INSERTION ===")
	s.println("Enter values separated by spaces:")
	s.printf("Example: 10 20 30 15 25: ")
	line, err := s.readLine()
	if err != nil {
		return err
	}

	res, bulkErr := InsertMany(s.tree, line)
	for _, e := range res.Entries {
		switch e.Status {
		case BulkInserted:
			s.stats.Inserted(ctx, true)
			s.printf("+ %d inserted\n", e.Value)
		case BulkDuplicate:
			s.stats.Inserted(ctx, false)
			s.printf("- %d already exists\n", e.Value)
		default:
			s.printf("- Invalid value ignored: %s\n", e.Token)
		}
	}
	if bulkErr != nil && s.logger != nil {
		s.logger.Warn("bulk insert skipped invalid values", zap.Strings("tokens", res.Invalid))
	}
	s.println("\nSummary:")
	s.printf("Inserted: %d\n", res.Inserted)
	s.printf("Duplicates: %d\n", res.Duplicates)
	if len(res.Invalid) > 0 {
		s.printf("Invalid: %d\n", len(res.Invalid))
	}
	s.showQuickStatistics()
	return nil
}

func (s *Shell) clearTree() error {
	s.println("\n=== CLEAR TREE ===")
	s.printf("Are you sure you want to clear the tree? (y/N): ")
	line, err := s.readLine()
	if err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		n := s.tree.Len()
		s.tree.Release()
		s.debug("tree cleared", zap.Int64("nodes", n))
		s.println("Tree cleared successfully!")
	default:
		s.println("Operation cancelled.")
	}
	return nil
}

func (s *Shell) showQuickStatistics() {
	root := s.tree.Root()
	if root == nil {
		s.println("Current state: Empty tree")
		return
	}
	s.printf("Current state: %d nodes, root: %d (%s)\n", s.tree.Len(), root.Key(), root.Color())
}
