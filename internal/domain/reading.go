package domain

import "time"

// RawReading is one row as found in a station file, before any parsing.
// Date is empty for sources whose time column carries a full timestamp.
type RawReading struct {
	Date  string
	Time  string
	Value string
}

// RawBatch is everything a reader produced for one station. Missing counts
// rows dropped by the reader because the date, time or value cell was empty.
type RawBatch struct {
	Readings []RawReading
	Rows     int
	Missing  int
}

// Reading is a normalized observation: UTC timestamp and Celsius value.
type Reading struct {
	Time    time.Time
	Celsius float64
}

// HourlyReading is one row of the master temperature table.
type HourlyReading struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperature"`
	Station     string    `json:"aws"`
}

// Sample is a single value of some series (station truth or a gridded or
// satellite product) at a point in time.
type Sample struct {
	Station string
	Time    time.Time
	Value   float64
}
