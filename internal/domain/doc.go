// Package domain models automatic weather station (AWS) temperature data and
// the transformations that turn raw collaborator files into a calibrated,
// hourly ground-truth series.
//
// # Stations
//
// A [Station] is one monitoring site from the study registry: an identifier,
// WGS-84 coordinates, where its raw data lives, and how to interpret it. The
// declared unit is "celsius" or "kelvin" (the historical spelling "celcius"
// is accepted as an alias). The declared time zone is "UTC" or "UTC-3".
//
// # Normalization
//
// Raw rows go through a fixed sequence, one station at a time:
//
//	date + time-of-day  →  timestamp        (format-inferring parse, unparseable rows dropped)
//	timestamp           →  UTC              (UTC-3 stations shifted by +3h, no DST)
//	value               →  Celsius          (kelvin stations minus 273.15)
//	Celsius             →  plausible only   (≤ -100 °C is a sensor fault, dropped)
//	readings            →  hourly means     (floor to the UTC hour, empty hours absent)
//
// The threshold and offsets are the package variables [ImplausibleThreshold],
// [KelvinOffset] and [TimeZoneOffsets].
//
// # Calibration
//
// A satellite or reanalysis product is paired with the station series by
// nearest timestamp within a tolerance ([NearestJoin]) and a single-variable
// least squares fit maps product values onto station temperature ([Fit]).
//
// # Gridded products
//
// Reanalysis grids are sampled at station coordinates by nearest grid cell
// using a k-d tree over (lat, lon) in degrees ([Locator]).
package domain
