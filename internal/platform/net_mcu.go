//go:build rp2040

package platform

import (
	"net"
	"net/netip"
	"time"

	"github.com/soypat/cyw43439"
	"github.com/soypat/seqs/stacks"

	"radiobridge-go/errcode"
	"radiobridge-go/internal/credentials"
	"radiobridge-go/types"
)

const (
	hostname    = "radiobridge"
	nicPollIdle = 5 * time.Millisecond
	connTimeout = 2 * time.Second
	tcpBufSize  = 2048
)

// wifiListener accepts TCP connections over the onboard CYW43439. A
// background goroutine queues accepted conns so Accept never blocks the
// server poll loop.
type wifiListener struct {
	ln      *stacks.TCPListener
	pending chan net.Conn
}

func newWifiListener(port uint16) (*wifiListener, error) {
	if port == 0 {
		port = 80
	}
	dev := cyw43439.NewPicoWDevice()
	if err := dev.Init(cyw43439.DefaultWifiConfig()); err != nil {
		return nil, err
	}
	if err := dev.JoinWPA2(credentials.SSID(), credentials.Password()); err != nil {
		return nil, err
	}
	mac, err := dev.HardwareAddr6()
	if err != nil {
		return nil, err
	}
	stack := stacks.NewPortStack(stacks.PortStackConfig{
		MAC:             mac,
		MaxOpenPortsTCP: 2,
		MTU:             cyw43439.MTU,
	})
	dev.RecvEthHandle(stack.RecvEth)
	go nicLoop(dev, stack)

	if err := dhcpSetup(stack); err != nil {
		return nil, err
	}

	ln, err := stacks.NewTCPListener(stack, stacks.TCPListenerConfig{
		MaxConnections: 2,
		ConnTxBufSize:  tcpBufSize,
		ConnRxBufSize:  tcpBufSize,
	})
	if err != nil {
		return nil, err
	}
	if err := ln.StartListening(port); err != nil {
		return nil, err
	}
	w := &wifiListener{ln: ln, pending: make(chan net.Conn, 2)}
	go w.acceptLoop()
	return w, nil
}

func dhcpSetup(stack *stacks.PortStack) error {
	client := stacks.NewDHCPClient(stack, 68)
	err := client.BeginRequest(stacks.DHCPRequestConfig{
		RequestedAddr: netip.AddrFrom4([4]byte{}),
		Xid:           uint32(time.Now().UnixNano()),
		Hostname:      hostname,
	})
	if err != nil {
		return err
	}
	for retries := 0; !client.Done(); retries++ {
		if retries > 100 {
			return errcode.Timeout
		}
		time.Sleep(100 * time.Millisecond)
	}
	stack.SetAddr(client.Offer())
	return nil
}

func (w *wifiListener) acceptLoop() {
	for {
		c, err := w.ln.Accept()
		if err != nil {
			time.Sleep(nicPollIdle)
			continue
		}
		// A stalled client must not wedge the synchronous serve path.
		c.SetDeadline(time.Now().Add(connTimeout))
		w.pending <- c
	}
}

func (w *wifiListener) Accept() (types.Conn, error) {
	select {
	case c := <-w.pending:
		return c, nil
	default:
		return nil, errcode.NoPending
	}
}

func (w *wifiListener) Close() error { return w.ln.Close() }

// nicLoop shuttles ethernet frames between the radio and the TCP stack.
func nicLoop(dev *cyw43439.Device, stack *stacks.PortStack) {
	const queueSize = 3
	var queue [queueSize][cyw43439.MTU]byte
	pending := [queueSize]int{}
	for {
		stallRx := true
		got, _ := dev.PollOne()
		if got {
			stallRx = false
		}
		for i := range queue {
			if pending[i] != 0 {
				continue
			}
			n, err := stack.HandleEth(queue[i][:])
			if err != nil || n <= 0 {
				break
			}
			pending[i] = n
		}
		stallTx := true
		for i := range queue {
			if pending[i] <= 0 {
				continue
			}
			stallTx = false
			if err := dev.SendEth(queue[i][:pending[i]]); err == nil {
				pending[i] = 0
			}
		}
		if stallRx && stallTx {
			time.Sleep(nicPollIdle)
		}
	}
}
