package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSV struct {
	fills  *csv.Writer
	stats  *csv.Writer
	ff, sf *os.File
}

func NewCSV(fillsPath, statsPath string) (*CSV, error) {
	ff, err := os.Create(fillsPath)
	if err != nil {
		return nil, err
	}
	sf, err := os.Create(statsPath)
	if err != nil {
		return nil, err
	}

	fw := csv.NewWriter(ff)
	sw := csv.NewWriter(sf)

	if err := fw.Write([]string{"run_id", "cl_ord_id", "symbol", "side", "quantity", "price", "time"}); err != nil {
		return nil, err
	}
	if err := sw.Write([]string{"run_id", "time", "total_notional", "realized_pnl"}); err != nil {
		return nil, err
	}

	fw.Flush()
	if err := fw.Error(); err != nil {
		return nil, err
	}
	sw.Flush()
	if err := sw.Error(); err != nil {
		return nil, err
	}

	return &CSV{fw, sw, ff, sf}, nil
}

func (j *CSV) RecordFill(r FillRecord) error {
	j.fills.Write([]string{
		r.RunID,
		r.ClOrdID,
		r.Symbol,
		r.Side,
		strconv.FormatInt(r.Quantity, 10),
		r.Price.String(),
		r.Time.Format(time.RFC3339),
	})
	j.fills.Flush()
	return j.fills.Error()
}

func (j *CSV) RecordStats(s StatsSnapshot) error {
	err := j.stats.Write([]string{
		s.RunID,
		s.Time.Format(time.RFC3339),
		s.TotalNotional.String(),
		s.RealizedPnL.String(),
	})
	if err != nil {
		return err
	}

	j.stats.Flush()
	return j.stats.Error()
}

func (j *CSV) Close() error {
	j.fills.Flush()
	if err := j.fills.Error(); err != nil {
		return err
	}
	j.stats.Flush()
	if err := j.stats.Error(); err != nil {
		return err
	}

	if err := j.ff.Close(); err != nil {
		return err
	}
	if err := j.sf.Close(); err != nil {
		return err
	}
	return nil
}
