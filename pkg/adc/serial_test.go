package adc

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Reading
		wantErr bool
	}{
		{
			name: "valid line",
			line: "1234567890123,2048",
			want: Reading{Timestamp: time.Unix(0, 1234567890123*1000), Value: 2048},
		},
		{
			name: "max reading",
			line: "1,4095",
			want: Reading{Timestamp: time.Unix(0, 1000), Value: 4095},
		},
		{
			name: "zero reading",
			line: "0,0",
			want: Reading{Timestamp: time.Unix(0, 0), Value: 0},
		},
		{
			name:    "invalid - wrong number of fields",
			line:    "1234567890123",
			wantErr: true,
		},
		{
			name:    "invalid - too many fields",
			line:    "1234567890123,2048,1024",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric timestamp",
			line:    "abc,2048",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric reading",
			line:    "1234567890123,abc",
			wantErr: true,
		},
		{
			name:    "invalid - reading out of range",
			line:    "1234567890123,4096",
			wantErr: true,
		},
		{
			name:    "invalid - negative reading",
			line:    "1234567890123,-1",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Timestamp.UnixNano(), got.Timestamp.UnixNano())
			assert.Equal(t, tt.want.Value, got.Value)
		})
	}
}

func TestNewSerial_Defaults(t *testing.T) {
	s := NewSerial("COM3", 0, 0, zerolog.Nop())
	assert.Equal(t, "COM3", s.port)
	assert.Equal(t, DefaultBaudRate, s.baudRate)
	assert.Equal(t, DefaultBufferSize, s.feed.ring.Cap())
	assert.False(t, s.IsConnected())
	assert.NoError(t, s.Close())
	assert.Equal(t, uint(2), Shift(s))
}

func TestSerial_Read(t *testing.T) {
	s := NewSerial("COM3", 115200, 4, zerolog.Nop())

	input := strings.Join([]string{
		"1,100",
		"",
		"2,200",
		"garbage",
		"3,5000",
		"  4,300  ",
	}, "\n")
	s.read(strings.NewReader(input))

	assert.Equal(t, 2, s.Dropped())
	assert.Equal(t, 3, s.feed.pending())
	assert.Equal(t, uint16(100), s.Get())
	assert.Equal(t, uint16(200), s.Get())
	assert.Equal(t, uint16(300), s.Get())
	// drained: keeps returning the last reading
	assert.Equal(t, uint16(300), s.Get())
}

func TestSerial_ReadOverflowKeepsNewest(t *testing.T) {
	s := NewSerial("COM3", 115200, 2, zerolog.Nop())
	s.read(strings.NewReader("1,10\n2,20\n3,30\n"))

	assert.Equal(t, uint16(20), s.Get())
	assert.Equal(t, uint16(30), s.Get())
}

func TestSerial_ReadStopsWhenClosed(t *testing.T) {
	s := NewSerial("COM3", 115200, 4, zerolog.Nop())
	s.cancel()
	s.read(strings.NewReader("1,10\n"))
	assert.Equal(t, 0, s.feed.pending())
}
