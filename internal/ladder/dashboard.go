package ladder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mum4k/termdash"
	"github.com/mum4k/termdash/cell"
	"github.com/mum4k/termdash/container"
	"github.com/mum4k/termdash/container/grid"
	"github.com/mum4k/termdash/linestyle"
	"github.com/mum4k/termdash/terminal/tcell"
	"github.com/mum4k/termdash/terminal/terminalapi"
	"github.com/mum4k/termdash/widgets/linechart"
	"github.com/mum4k/termdash/widgets/text"

	"github.com/MJRob1/fx-sim-agg/internal/book"
)

const (
	redrawInterval = 250 * time.Millisecond
	maxHistorySize = 120
)

// Dashboard is a live terminal view of the book: the ladder on the left, the
// spread history in pips on the right.
type Dashboard struct {
	ladder      *text.Text
	spreadChart *linechart.LineChart
	updateChan  chan book.Snapshot

	mu      sync.Mutex
	spreads []float64
}

func NewDashboard() *Dashboard {
	return &Dashboard{updateChan: make(chan book.Snapshot, 16)}
}

// Update hands a fresh snapshot to the dashboard. Non-blocking: if the
// redraw loop is behind, the frame is dropped rather than stalling the
// pipeline.
func (d *Dashboard) Update(snap book.Snapshot) {
	select {
	case d.updateChan <- snap:
	default:
	}
}

func (d *Dashboard) initWidgets() error {
	ladder, err := text.New(text.WrapAtRunes())
	if err != nil {
		return fmt.Errorf("failed to create ladder widget: %v", err)
	}
	d.ladder = ladder

	spreadChart, err := linechart.New(
		linechart.AxesCellOpts(cell.FgColor(cell.ColorRed)),
		linechart.YLabelCellOpts(cell.FgColor(cell.ColorGreen)),
		linechart.XLabelCellOpts(cell.FgColor(cell.ColorGreen)),
	)
	if err != nil {
		return fmt.Errorf("failed to create spread chart: %v", err)
	}
	d.spreadChart = spreadChart
	return nil
}

func (d *Dashboard) processSnapshot(snap book.Snapshot) {
	d.ladder.Reset()
	_ = d.ladder.Write(Render(snap))

	if len(snap.Buys) == 0 || len(snap.Sells) == 0 {
		return
	}
	spread := snap.Sells[0].Price.Sub(snap.Buys[0].Price).Shift(snap.Precision)

	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.spreads) >= maxHistorySize {
		d.spreads = d.spreads[1:]
	}
	d.spreads = append(d.spreads, spread.InexactFloat64())
	_ = d.spreadChart.Series("spread_pips", d.spreads,
		linechart.SeriesCellOpts(cell.FgColor(cell.ColorCyan)))
}

func (d *Dashboard) gridLayout(pair string) ([]container.Option, error) {
	builder := grid.New()
	builder.Add(
		grid.ColWidthPerc(55,
			grid.Widget(d.ladder,
				container.Border(linestyle.Light),
				container.BorderTitle(fmt.Sprintf(" %s Ladder ", pair)),
			),
		),
		grid.ColWidthPerc(45,
			grid.Widget(d.spreadChart,
				container.Border(linestyle.Light),
				container.BorderTitle(" Spread History (pips) "),
			),
		),
	)
	return builder.Build()
}

// Run owns the terminal until ctx is cancelled.
func (d *Dashboard) Run(ctx context.Context, pair string) error {
	if err := d.initWidgets(); err != nil {
		return err
	}

	t, err := tcell.New(tcell.ColorMode(terminalapi.ColorMode256))
	if err != nil {
		return fmt.Errorf("failed to initialize terminal: %v", err)
	}
	defer t.Close()

	gridOpts, err := d.gridLayout(pair)
	if err != nil {
		return fmt.Errorf("failed to build grid layout: %v", err)
	}
	c, err := container.New(t, gridOpts...)
	if err != nil {
		return fmt.Errorf("failed to create root container: %v", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-d.updateChan:
				d.processSnapshot(snap)
			}
		}
	}()

	return termdash.Run(ctx, t, c, termdash.RedrawInterval(redrawInterval))
}
