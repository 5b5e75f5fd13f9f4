package camera

import (
	"bytes"
	"context"
	"errors"
	"net"
	"rpsvision/internal/config"
	"rpsvision/internal/logger"
	"strconv"
)

var (
	jpegHeader = []byte{0xFF, 0xD8}
	jpegFooter = []byte{0xFF, 0xD9}
)

// ImageHandler receives one complete encoded image from a named camera.
type ImageHandler func(image []byte, camera string)

// Reassembler rebuilds JPEG images that cameras send split across UDP packets.
// A packet starting with the JPEG header begins a new image; a packet ending
// with the footer completes it.
type Reassembler struct {
	names   map[string]string
	buffers map[string]*bytes.Buffer
}

func NewReassembler(names map[string]string) *Reassembler {
	return &Reassembler{
		names:   names,
		buffers: make(map[string]*bytes.Buffer),
	}
}

// CameraName resolves a sender IP to its configured name.
func (r *Reassembler) CameraName(ip string) string {
	if name, ok := r.names[ip]; ok {
		return name
	}
	return "unknown_" + ip
}

// Push appends one packet and returns a copy of the image once it is complete.
func (r *Reassembler) Push(camera string, data []byte) ([]byte, bool) {
	buf, ok := r.buffers[camera]
	if !ok {
		buf = new(bytes.Buffer)
		r.buffers[camera] = buf
	}

	if bytes.HasPrefix(data, jpegHeader) {
		buf.Reset()
	}
	buf.Write(data)

	if !bytes.HasSuffix(data, jpegFooter) {
		return nil, false
	}
	image := make([]byte, buf.Len())
	copy(image, buf.Bytes())
	buf.Reset()
	return image, true
}

// ListenUDP receives camera packets on config.CamerasPort until ctx is done and
// forwards every complete image to handle.
func ListenUDP(ctx context.Context, config *config.Config, logger *logger.Logger, handle ImageHandler) error {
	port := strconv.Itoa(config.CamerasPort)

	addr, err := net.ResolveUDPAddr("udp", ":"+port)
	if err != nil {
		return err
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	logger.Info("UDP camera listener started on port %s", port)
	reassembler := NewReassembler(config.CameraNames)
	buffer := make([]byte, 2048)

	for {
		n, remoteAddr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				logger.Info("UDP camera listener stopped")
				return nil
			}
			logger.Error("Error reading UDP packet: %v", err)
			continue
		}

		camera := reassembler.CameraName(remoteAddr.IP.String())
		if image, ok := reassembler.Push(camera, buffer[:n]); ok {
			handle(image, camera)
		}
	}
}
