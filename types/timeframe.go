package types

import (
	"errors"
	"fmt"
	"time"
)

type Timeframe string

const (
	OneMinute      Timeframe = "1m"
	ThreeMinutes   Timeframe = "3m"
	FiveMinutes    Timeframe = "5m"
	FifteenMinutes Timeframe = "15m"
	ThirtyMinutes  Timeframe = "30m"
	Hour           Timeframe = "1h"
	TwoHours       Timeframe = "2h"
	FourHours      Timeframe = "4h"
	Day            Timeframe = "1d"
	Week           Timeframe = "1w"
)

var TimeframeToDuration = map[Timeframe]time.Duration{
	OneMinute:      time.Minute,
	ThreeMinutes:   time.Minute * 3,
	FiveMinutes:    time.Minute * 5,
	FifteenMinutes: time.Minute * 15,
	ThirtyMinutes:  time.Minute * 30,
	Hour:           time.Hour,
	TwoHours:       time.Hour * 2,
	FourHours:      time.Hour * 4,
	Day:            time.Hour * 24,
	Week:           time.Hour * 24 * 7,
}

var ErrUnknownTimeframe = errors.New("unknown timeframe")

func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(s)
	if _, ok := TimeframeToDuration[tf]; !ok {
		return "", fmt.Errorf("%q: %w", s, ErrUnknownTimeframe)
	}
	return tf, nil
}

func (tf Timeframe) Duration() time.Duration {
	return TimeframeToDuration[tf]
}
