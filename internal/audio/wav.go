package audio

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	frameSize = 2048
	hopLength = 512

	formatPCM        = 1
	formatExtensible = 0xFFFE
)

// WAVExtractor 解码整数 PCM WAV 并计算帧级特征
type WAVExtractor struct{}

func (WAVExtractor) Extract(path string) (Features, error) {
	if !strings.EqualFold(filepath.Ext(path), ".wav") {
		return Features{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return Features{}, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return Features{}, fmt.Errorf("%w: invalid wav header: %v", ErrUnsupportedFormat, d.Err())
	}
	// 浮点采样会被当成整数读出，只接受整数 PCM
	if d.WavAudioFormat != formatPCM && d.WavAudioFormat != formatExtensible {
		return Features{}, fmt.Errorf("%w: wav format %d", ErrUnsupportedFormat, d.WavAudioFormat)
	}
	if d.SampleRate == 0 {
		return Features{}, fmt.Errorf("%w: zero sample rate", ErrUnsupportedFormat)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return Features{}, fmt.Errorf("wav: read pcm: %w", err)
	}
	samples := monoSamples(buf)
	if len(samples) == 0 {
		return Features{}, errors.New("wav: no audio samples")
	}
	return computeFeatures(samples, buf.Format.SampleRate), nil
}

// monoSamples 把交错的多声道整数采样混成单声道并归一化到 [-1, 1]
func monoSamples(buf *goaudio.IntBuffer) []float64 {
	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	bits := buf.SourceBitDepth

	// 8 位 PCM 是无符号的，以 128 为零点
	offset, scale := 0.0, math.Exp2(float64(bits-1))
	if bits == 8 {
		offset = 128
	}

	n := len(buf.Data) / channels
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += (float64(buf.Data[i*channels+ch]) - offset) / scale
		}
		out[i] = sum / float64(channels)
	}
	return out
}

func computeFeatures(samples []float64, rate int) Features {
	f := Features{
		Duration:   float64(len(samples)) / float64(rate),
		SampleRate: rate,
	}

	fft := fourier.NewFFT(frameSize)
	binHz := float64(rate) / frameSize
	frame := make([]float64, frameSize)
	bins := make([]complex128, frameSize/2+1)

	var rmsSum, zcrSum, centroidSum, bandwidthSum float64
	frames := frameCount(len(samples))
	for i := 0; i < frames; i++ {
		start := i * hopLength
		for j := range frame {
			frame[j] = 0
			if start+j < len(samples) {
				frame[j] = samples[start+j]
			}
		}

		var energy float64
		crossings := 0
		for j, v := range frame {
			energy += v * v
			if j > 0 && (frame[j-1] >= 0) != (v >= 0) {
				crossings++
			}
		}
		rmsSum += math.Sqrt(energy / frameSize)
		zcrSum += float64(crossings) / frameSize

		// Hann 原地加窗，帧在下一轮会被重新填充
		bins = fft.Coefficients(bins, window.Hann(frame))

		var magSum, weighted float64
		for k, c := range bins {
			m := cmplx.Abs(c)
			magSum += m
			weighted += m * float64(k) * binHz
		}
		if magSum == 0 {
			continue
		}
		centroid := weighted / magSum
		var spread float64
		for k, c := range bins {
			d := float64(k)*binHz - centroid
			spread += cmplx.Abs(c) * d * d
		}
		centroidSum += centroid
		bandwidthSum += math.Sqrt(spread / magSum)
	}

	n := float64(frames)
	f.RMSEnergy = rmsSum / n
	f.ZeroCrossingRate = zcrSum / n
	f.SpectralCentroid = centroidSum / n
	f.SpectralBandwidth = bandwidthSum / n
	return f
}

// frameCount 不足一帧时按一帧补零处理
func frameCount(n int) int {
	if n <= frameSize {
		return 1
	}
	return 1 + (n-frameSize+hopLength-1)/hopLength
}
