package driver_test

import (
	"image"
	"testing"

	"multicam/internal/driver"
)

func TestParsePixelFormat(t *testing.T) {
	tests := []struct {
		in   string
		want driver.PixelFormat
		ok   bool
	}{
		{"mono8", driver.Mono8, true},
		{"Mono12", driver.Mono12, true},
		{" 16 ", driver.Mono16, true},
		{"mono10", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, err := driver.ParsePixelFormat(tt.in)
		if tt.ok && (err != nil || got != tt.want) {
			t.Fatalf("ParsePixelFormat(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
		if !tt.ok && err == nil {
			t.Fatalf("ParsePixelFormat(%q) expected error", tt.in)
		}
	}
}

func TestConvertRawMono12IsMSBAligned(t *testing.T) {
	img, err := driver.ConvertRaw(2, 1, []uint16{0x0fff, 0x0001}, 12, driver.Mono12)
	if err != nil {
		t.Fatalf("ConvertRaw: %v", err)
	}
	if got := img.At16(0, 0); got != 0xfff0 {
		t.Fatalf("max sample = %#04x, want 0xfff0", got)
	}
	if got := img.At16(1, 0); got != 0x0010 {
		t.Fatalf("min sample = %#04x, want 0x0010", got)
	}
	if _, ok := img.Gray().(*image.Gray16); !ok {
		t.Fatal("expected Gray16 view for mono12")
	}
}

func TestConvertRawMono8KeepsHighByte(t *testing.T) {
	img, err := driver.ConvertRaw(1, 1, []uint16{0x0abc}, 12, driver.Mono8)
	if err != nil {
		t.Fatalf("ConvertRaw: %v", err)
	}
	if img.Pix[0] != 0xab {
		t.Fatalf("pixel = %#02x, want 0xab", img.Pix[0])
	}
	if img.SizeBytes() != 1 {
		t.Fatalf("size = %d", img.SizeBytes())
	}
}

func TestConvertRawMono16FillsLowBits(t *testing.T) {
	img, err := driver.ConvertRaw(1, 1, []uint16{0x0fff}, 12, driver.Mono16)
	if err != nil {
		t.Fatalf("ConvertRaw: %v", err)
	}
	if got := img.At16(0, 0); got != 0xffff {
		t.Fatalf("sample = %#04x, want 0xffff", got)
	}
}

func TestConvertRawRejectsShortBuffer(t *testing.T) {
	if _, err := driver.ConvertRaw(2, 2, []uint16{1}, 12, driver.Mono8); err == nil {
		t.Fatal("expected error for short buffer")
	}
}
