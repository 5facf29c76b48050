package calculator

import "SignalDesk/internal/model"

const (
	MinSnapshotBars = 50

	ReportFastPeriod = 20
	ReportSlowPeriod = 50
	RSIPeriod        = 14
	ATRPeriod        = 14
	VolumePeriod     = 20
	MACDFast         = 12
	MACDSlow         = 26
	MACDSignal       = 9
)

// Fallback reasons carried in IndicatorSnapshot.Error.
const (
	ErrFetchFailed      = "Failed to fetch data"
	ErrInsufficientData = "Insufficient data"
)

// Snapshot computes every indicator for the most recent bar of the series.
// Series shorter than MinSnapshotBars produce a fallback snapshot with Error set.
func Snapshot(series model.BarSeries) model.IndicatorSnapshot {
	if series.Len() == 0 {
		return model.FailedSnapshot(series.Symbol, ErrFetchFailed)
	}
	if series.Len() < MinSnapshotBars {
		return model.FailedSnapshot(series.Symbol, ErrInsufficientData)
	}

	closes := series.Closes()
	volumes := series.Volumes()
	latest, _ := series.Last()

	smaFast := SMA(closes, ReportFastPeriod)
	smaSlow := SMA(closes, ReportSlowPeriod)
	rsi := CalculateRSI(closes, RSIPeriod)
	macd := CalculateMACD(closes, MACDFast, MACDSlow, MACDSignal)

	return model.IndicatorSnapshot{
		Symbol:     series.Symbol,
		Price:      latest.Close,
		SMAFast:    smaFast,
		SMASlow:    smaSlow,
		RSI:        rsi,
		MACDLine:   macd.Line,
		MACDSignal: macd.Signal,
		MACDHist:   macd.Hist,
		ATR:        CalculateATR(series.Bars, ATRPeriod),
		Volume:     latest.Volume,
		VolumeSMA:  SMA(volumes, VolumePeriod),
		Trend:      ClassifyTrend(smaFast, smaSlow, rsi),
	}
}
