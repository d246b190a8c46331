package audio

import (
	"errors"
	"fmt"
	"strings"
)

const (
	LabelAIGenerated = "AI_GENERATED"
	LabelRealHuman   = "REAL_HUMAN"

	centroidLimit = 2000.0
	zcrLimit      = 0.1
)

// ErrUnsupportedFormat 文件不是可解码的 PCM WAV
var ErrUnsupportedFormat = errors.New("unsupported audio format")

var allowedExtensions = map[string]bool{
	"wav":  true,
	"mp3":  true,
	"flac": true,
	"ogg":  true,
	"m4a":  true,
}

// AllowedFile 按扩展名判断是否接受上传，大小写不敏感
func AllowedFile(name string) bool {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return false
	}
	return allowedExtensions[strings.ToLower(name[i+1:])]
}

// Features 声学特征，均为逐帧结果的平均值
type Features struct {
	Duration          float64 `json:"duration"`
	SampleRate        int     `json:"sample_rate"`
	RMSEnergy         float64 `json:"rms_energy"`
	SpectralCentroid  float64 `json:"spectral_centroid"`
	SpectralBandwidth float64 `json:"spectral_bandwidth"`
	ZeroCrossingRate  float64 `json:"zero_crossing_rate"`
}

type Extractor interface {
	Extract(path string) (Features, error)
}

type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type Classifier interface {
	Classify(f Features) Prediction
}

// ThresholdClassifier 演示用的阈值分类器，不代表真实检测能力
type ThresholdClassifier struct{}

func (ThresholdClassifier) Classify(f Features) Prediction {
	if f.SpectralCentroid > centroidLimit || f.ZeroCrossingRate > zcrLimit {
		return Prediction{Label: LabelAIGenerated, Confidence: 0.87}
	}
	return Prediction{Label: LabelRealHuman, Confidence: 0.92}
}

type Analysis struct {
	Features   Features
	Prediction Prediction
}

type Detector struct {
	Extractor  Extractor
	Classifier Classifier
}

func NewDetector() *Detector {
	return &Detector{Extractor: WAVExtractor{}, Classifier: ThresholdClassifier{}}
}

// Analyze 提取特征后分类
func (d *Detector) Analyze(path string) (Analysis, error) {
	f, err := d.Extractor.Extract(path)
	if err != nil {
		return Analysis{}, fmt.Errorf("extract features: %w", err)
	}
	return Analysis{Features: f, Prediction: d.Classifier.Classify(f)}, nil
}
