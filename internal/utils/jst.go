package utils

import (
	"time"
)

// JST 日本標準時 (UTC+9)。お題の日付境界は常に JST で計算する
var JST = time.FixedZone("JST", 9*60*60)

// JSTHour は JST での時刻 (0-23) を返す
func JSTHour(t time.Time) int {
	return t.In(JST).Hour()
}

// HourStartUTC は現在の正時の開始時刻を UTC で返す
func HourStartUTC(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

// NextHourUTC は次の正時を UTC で返す
// JST は UTC+9 (整数時間オフセット) なので JST の正時境界と一致する
func NextHourUTC(t time.Time) time.Time {
	return HourStartUTC(t).Add(time.Hour)
}

// JSTDayStartUTC は JST でのその日の 0 時を UTC に変換して返す
func JSTDayStartUTC(t time.Time) time.Time {
	j := t.In(JST)
	return time.Date(j.Year(), j.Month(), j.Day(), 0, 0, 0, 0, JST).UTC()
}
