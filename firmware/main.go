//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"context"
	"machine"
	"strconv"
	"time"

	"github.com/itohio/noisey/pkg/hue"
	"github.com/itohio/noisey/pkg/pipeline"
	"github.com/itohio/noisey/pkg/ringbuf"
	"github.com/itohio/noisey/pkg/sampler"
	"github.com/itohio/noisey/pkg/scheduler"
	"github.com/itohio/noisey/pkg/telemetry"
	"github.com/rs/zerolog"
	"tinygo.org/x/drivers/ws2812"
)

var (
	adcMic machine.ADC
	uart   = machine.UART0

	// Output buffer for telemetry lines
	lineBuffer []byte
)

// uartSender prints telemetry messages as JSON lines.
type uartSender struct{}

func (uartSender) Send(_ context.Context, msg telemetry.Message) error {
	lineBuffer = appendMessage(lineBuffer[:0], msg)
	_, err := uart.Write(lineBuffer)
	return err
}

func main() {
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	PIN_MIC.Configure(machine.PinConfig{Mode: machine.PinInput})
	machine.InitADC()
	adcMic = machine.ADC{Pin: PIN_MIC}
	adcMic.Configure(machine.ADCConfig{})

	if STREAM_ADC {
		streamADC()
		return
	}

	PIN_STATUS.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_NEOPIXEL.Configure(machine.PinConfig{Mode: machine.PinOutput})
	strip := ws2812.New(PIN_NEOPIXEL)

	updateInterval := NUM_PIXELS * ANIMATION_MS * time.Millisecond
	buffer := ringbuf.New[int16](BUFFER_CAPACITY)
	reporter := telemetry.NewReporter(buffer, uartSender{}, shortID(), updateInterval, CHUNK_SIZE, 0, zerolog.Nop())

	p := pipeline.New(
		sampler.New(adcMic, SAMPLE_WINDOW_MS*time.Millisecond, sampler.WithShift(ADC_SHIFT)),
		hue.New(strip, NUM_PIXELS, int(updateInterval/(ANIMATION_MS*time.Millisecond)), BRIGHTNESS),
		buffer,
		pipeline.Settings{Offset: OFFSET, Sensitivity: SENSITIVITY},
		pipeline.WithReporter(reporter),
		pipeline.WithObserver(func(pipeline.Status) {
			// Blink the status LED on every update
			PIN_STATUS.Set(!PIN_STATUS.Get())
		}),
	)

	s := scheduler.New()
	p.Schedule(s, pipeline.Timing{
		Measure: ANIMATION_MS * time.Millisecond,
		Update:  updateInterval,
		Animate: ANIMATION_MS * time.Millisecond,
		Report:  REPORT_INTERVAL_MS * time.Millisecond,
	})

	p.Prime()
	s.Run(context.Background())
}

// streamADC prints raw readings for the host serial source.
// Output format: "unix_micros,reading\n" with a 12-bit reading.
func streamADC() {
	lastADCRead := time.Now()
	for {
		now := time.Now()
		if now.Sub(lastADCRead) >= SAMPLE_INTERVAL_MS*time.Millisecond {
			reading := adcMic.Get() >> 4
			lineBuffer = strconv.AppendInt(lineBuffer[:0], now.UnixNano()/1000, 10)
			lineBuffer = append(lineBuffer, ',')
			lineBuffer = strconv.AppendUint(lineBuffer, uint64(reading), 10)
			lineBuffer = append(lineBuffer, '\n')
			uart.Write(lineBuffer)
			lastADCRead = now
		}

		// Small delay to prevent tight loop (but still allow precise timing)
		time.Sleep(100 * time.Microsecond)
	}
}

// shortID is the first two bytes of the chip's unique id in hex.
func shortID() string {
	const hex = "0123456789abcdef"
	id := machine.DeviceID()
	if len(id) < 2 {
		return "0000"
	}
	return string([]byte{hex[id[0]>>4], hex[id[0]&15], hex[id[1]>>4], hex[id[1]&15]})
}

// appendMessage formats msg as one JSON line without reflection.
func appendMessage(dst []byte, msg telemetry.Message) []byte {
	dst = append(dst, `{"id":"`...)
	dst = append(dst, msg.ID...)
	dst = append(dst, `","interval":`...)
	dst = strconv.AppendInt(dst, int64(msg.Interval), 10)
	dst = append(dst, `,"nbElements":`...)
	dst = strconv.AppendInt(dst, int64(msg.NbElements), 10)
	dst = append(dst, `,"first":`...)
	dst = strconv.AppendBool(dst, msg.First)
	dst = append(dst, `,"noise":[`...)
	for i, v := range msg.Noise {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = strconv.AppendInt(dst, int64(v), 10)
	}
	dst = append(dst, "]}\n"...)
	return dst
}
