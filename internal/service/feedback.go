package service

import (
	"encoding/base64"
	"image"
	"rpsvision/internal/service/websocket"
	"rpsvision/internal/tensor"
	"rpsvision/internal/vision"
)

// FeedbackScale enlarges the 64x64 network input for display.
const FeedbackScale = 4

// Broadcaster delivers messages to every connected viewer.
type Broadcaster interface {
	Publish(msg websocket.Message)
}

// Codec converts between encoded camera images and frames.
type Codec interface {
	Decode(data []byte) (vision.Frame, error)
	EncodePNG(img *image.Gray) ([]byte, error)
}

// FeedbackRenderer shows viewers what the classifier actually sees.
type FeedbackRenderer struct {
	hub   Broadcaster
	codec Codec
	scale int
}

func NewFeedbackRenderer(hub Broadcaster, codec Codec) *FeedbackRenderer {
	return &FeedbackRenderer{hub: hub, codec: codec, scale: FeedbackScale}
}

// Render paints a [64, 64, 1] tensor in [0, 1] and broadcasts it as PNG.
func (f *FeedbackRenderer) Render(t *tensor.Tensor) error {
	img, err := vision.GrayImage(t)
	if err != nil {
		return err
	}
	data, err := f.codec.EncodePNG(vision.Upscale(img, f.scale))
	if err != nil {
		return err
	}
	f.hub.Publish(websocket.Message{
		Type:  websocket.TypeFeedback,
		Image: base64.StdEncoding.EncodeToString(data),
	})
	return nil
}
