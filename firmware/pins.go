//go:build tinygo

package main

import "machine"

const (
	// Ring configuration
	NUM_PIXELS   = 24  // Pixels on the ring
	ANIMATION_MS = 80  // One wheel step; a full revolution is one update interval
	BRIGHTNESS   = 100 // HSB brightness of lit pixels (1-255)

	// Sampling configuration
	SAMPLE_WINDOW_MS = 20 // Burst of ADC reads reduced to one average/peak pair
	ADC_SHIFT        = 6  // machine.ADC.Get is scaled to 16 bits, the filter expects 10

	// Indicator tuning, used until the host pushes its own
	SENSITIVITY = 5
	OFFSET      = 0

	// Telemetry
	REPORT_INTERVAL_MS = 10000 // Report period
	BUFFER_CAPACITY    = 10    // Differences kept between reports
	CHUNK_SIZE         = 20    // Differences per telemetry line

	// Raw streaming mode: print "unix_micros,reading" lines for the host
	// serial source instead of running the indicator.
	STREAM_ADC         = false
	SAMPLE_INTERVAL_MS = 1

	// Pins
	PIN_MIC      = machine.A0
	PIN_NEOPIXEL = machine.D10
	PIN_STATUS   = machine.LED

	// Serial configuration
	// Telemetry line: {"id":"abcd","interval":1920,"nbElements":10,"first":true,"noise":[...]}
	// ~120 bytes per report; the raw stream is ~1000 lines/s of ~20 bytes, which needs
	// 200,000 baud. 115200 is enough for telemetry; raise it for STREAM_ADC.
	UART_BAUD_RATE = 115200
)
