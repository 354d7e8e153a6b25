// Package driver generates random order flow through a session: new
// orders at a fixed cadence, with an occasional cancel of an earlier
// order. It exists to exercise the session against a counterparty; the
// session core never depends on it.
package driver

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	tomb "gopkg.in/tomb.v2"

	"github.com/ryanlerler/fixflow/config"
	"github.com/ryanlerler/fixflow/ledger"
	"github.com/ryanlerler/fixflow/session"
)

type Driver struct {
	sess *session.Session
	cfg  config.DriverConfig
	log  zerolog.Logger

	mu   sync.Mutex
	rng  *rand.Rand
	sent []string
}

func New(sess *session.Session, cfg config.DriverConfig, log zerolog.Logger, seed int64) *Driver {
	return &Driver{
		sess: sess,
		cfg:  cfg,
		log:  log,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Run sends cfg.Orders orders, pausing cfg.Interval between sends, and
// cancels a random earlier order with cfg.CancelProbability after each
// send. Returns when done or when ctx is canceled.
func (d *Driver) Run(ctx context.Context) error {
	t, ctx := tomb.WithContext(ctx)

	t.Go(func() error {
		return d.loop(ctx)
	})

	return t.Wait()
}

func (d *Driver) loop(ctx context.Context) error {
	interval, err := d.cfg.ParseInterval()
	if err != nil {
		return err
	}

	for i := 0; i < d.cfg.Orders; i++ {
		select {
		case <-ctx.Done():
			d.log.Info().Int("sent", i).Msg("driver stopped early")
			return nil
		default:
		}

		if err := d.sendOne(); err != nil {
			// A send that cannot be numbered is fatal for the session;
			// everything else was already absorbed below this layer.
			return err
		}

		if d.cfg.CancelProbability > 0 && d.rng.Float64() < d.cfg.CancelProbability {
			d.cancelOne()
		}

		if interval > 0 {
			select {
			case <-ctx.Done():
				d.log.Info().Int("sent", i+1).Msg("driver stopped early")
				return nil
			case <-time.After(interval):
			}
		}
	}

	d.log.Info().Int("sent", d.cfg.Orders).Msg("driver finished")
	return nil
}

func (d *Driver) sendOne() error {
	symbol := d.cfg.Symbols[d.rng.Intn(len(d.cfg.Symbols))]

	side := ledger.Buy
	if d.rng.Intn(2) == 1 {
		side = ledger.Sell
	}

	ordType := ledger.Limit
	if d.rng.Intn(2) == 1 {
		ordType = ledger.Market
	}

	qty := int64(10 + d.rng.Intn(91))

	price := decimal.Zero
	if ordType == ledger.Limit {
		price = decimal.NewFromFloat(100 + d.rng.Float64()*50).Round(2)
	}

	clOrdID, err := d.sess.SendNewOrder(symbol, side, ordType, qty, price)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.sent = append(d.sent, clOrdID)
	d.mu.Unlock()
	return nil
}

// cancelOne cancels a random previously sent order. The pick may name an
// order already canceled or filled; the session absorbs that.
func (d *Driver) cancelOne() {
	d.mu.Lock()
	if len(d.sent) == 0 {
		d.mu.Unlock()
		return
	}
	target := d.sent[d.rng.Intn(len(d.sent))]
	d.mu.Unlock()

	if _, err := d.sess.SendCancel(target); err != nil {
		d.log.Debug().Err(err).Str("orig_cl_ord_id", target).Msg("cancel skipped")
	}
}
