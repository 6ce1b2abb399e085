package sensor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTelegram(t *testing.T) {
	testCases := []struct {
		Name      string
		Telegram  string
		Expected  Telegram
		ExpectErr bool
	}{
		{
			Name:     "positive value",
			Telegram: "+0.123NPO\r",
			Expected: Telegram{Value: 0.123, Unit: "N", Mode: "P", Condition: "O"},
		},
		{
			Name:     "negative value",
			Telegram: "-1.50NRO",
			Expected: Telegram{Value: -1.5, Unit: "N", Mode: "R", Condition: "O"},
		},
		{
			Name:     "integer value",
			Telegram: "12KPE",
			Expected: Telegram{Value: 12, Unit: "K", Mode: "P", Condition: "E"},
		},
		{
			Name:     "negative integer",
			Telegram: "-5NPO\r",
			Expected: Telegram{Value: -5, Unit: "N", Mode: "P", Condition: "O"},
		},
		{
			Name:      "no value",
			Telegram:  "NPO",
			ExpectErr: true,
		},
		{
			Name:      "empty",
			Telegram:  "\r",
			ExpectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			got, err := DecodeTelegram(tc.Telegram)

			if tc.ExpectErr {
				assert.ErrorIs(t, err, ErrTelegram)
				return
			}

			require.NoError(t, err)
			assert.InDelta(t, tc.Expected.Value, got.Value, 1e-9)
			assert.Equal(t, tc.Expected.Unit, got.Unit)
			assert.Equal(t, tc.Expected.Mode, got.Mode)
			assert.Equal(t, tc.Expected.Condition, got.Condition)
		})
	}
}

// portMock answers every poll with the next queued telegram. Reads with
// nothing to return behave like a serial read timeout.
type portMock struct {
	mu       sync.Mutex
	replies  []string
	pending  bytes.Buffer
	written  bytes.Buffer
	writeErr error
	closed   bool
}

func (p *portMock) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writeErr != nil {
		return 0, p.writeErr
	}

	p.written.Write(b)

	if bytes.Equal(b, []byte(imadaPoll)) && len(p.replies) > 0 {
		p.pending.WriteString(p.replies[0])
		p.replies = p.replies[1:]
	}

	return len(b), nil
}

func (p *portMock) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending.Len() == 0 {
		return 0, nil
	}

	return p.pending.Read(b)
}

func (p *portMock) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true

	return nil
}

func newTestImada(port *portMock) *Imada {
	return NewImada(ImadaOptions{
		Port: "/dev/ttyUSB0",
		Open: func(name string, baudRate int) (io.ReadWriteCloser, error) {
			if name != "/dev/ttyUSB0" || baudRate != imadaBaudRate {
				return nil, errors.New("unexpected port settings")
			}

			return port, nil
		},
	})
}

func TestImadaRead(t *testing.T) {
	port := &portMock{replies: []string{"+0.250NPO\r", "-0.100NPO\r"}}
	imada := newTestImada(port)

	require.NoError(t, imada.Open())

	first, err := imada.Read(context.Background())
	require.NoError(t, err)

	second, err := imada.Read(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 0.25, first.Torque, 1e-9)
	assert.InDelta(t, -0.1, second.Torque, 1e-9)
	assert.Equal(t, "D\rD\r", port.written.String())

	require.NoError(t, imada.Close())
	assert.True(t, port.closed)
}

func TestImadaReadBeforeOpen(t *testing.T) {
	imada := newTestImada(&portMock{})

	_, err := imada.Read(context.Background())

	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestImadaSilentPortIsDisconnected(t *testing.T) {
	imada := newTestImada(&portMock{})

	require.NoError(t, imada.Open())

	_, err := imada.Read(context.Background())

	assert.ErrorIs(t, err, ErrDisconnected)
}

func TestImadaWriteFailureIsDisconnected(t *testing.T) {
	port := &portMock{writeErr: errors.New("device not configured")}
	imada := newTestImada(port)

	require.NoError(t, imada.Open())

	_, err := imada.Read(context.Background())

	assert.ErrorIs(t, err, ErrDisconnected)
}

func TestImadaGarbledTelegram(t *testing.T) {
	port := &portMock{replies: []string{"ERR\r", "+1.0NPO\r"}}
	imada := newTestImada(port)

	require.NoError(t, imada.Open())

	_, err := imada.Read(context.Background())
	assert.ErrorIs(t, err, ErrTelegram)

	r, err := imada.Read(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r.Torque, 1e-9)
}

func TestImadaInfo(t *testing.T) {
	info := NewImada(ImadaOptions{}).Info()

	assert.Equal(t, ImadaSerialNumber, info.SerialNumber)
	assert.InDelta(t, 3.0, info.TurnsInFullTurn, 1e-9)
}
