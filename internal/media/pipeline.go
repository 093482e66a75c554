// Package media 把上传的图片字节处理成统一规格的方形 JPEG
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/d60-Lab/aiverse-api/internal/model"
	"github.com/d60-Lab/aiverse-api/pkg/errcode"
	"github.com/d60-Lab/aiverse-api/pkg/logger"
)

const (
	DefaultSize    = 1080
	DefaultQuality = 85
	// DefaultMaxPixels 解码前按头部声明的像素数拦截，约 50MP
	DefaultMaxPixels int64 = 50_000_000
	// URLPrefix 存储文件对外访问路径前缀
	URLPrefix = "/uploads/"

	filenameSuffix = "_upload"
	outputExt      = ".jpg"
)

// Upload HTTP 层收到的单个文件
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Pipeline 校验、转换并存储上传图片；无请求级状态，可并发使用
type Pipeline struct {
	store     Storage
	size      int
	quality   int
	maxPixels int64
	now       func() time.Time
}

type Option func(*Pipeline)

func WithSize(size int) Option {
	return func(p *Pipeline) {
		if size > 0 {
			p.size = size
		}
	}
}

func WithQuality(q int) Option {
	return func(p *Pipeline) {
		if q >= 1 && q <= 100 {
			p.quality = q
		}
	}
}

// WithMaxPixels 限制解码的像素总数
func WithMaxPixels(n int64) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxPixels = n
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func NewPipeline(store Storage, opts ...Option) *Pipeline {
	p := &Pipeline{store: store, size: DefaultSize, quality: DefaultQuality, maxPixels: DefaultMaxPixels, now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Ingest 校验、转换并落盘；任一步失败都不会写入文件
func (p *Pipeline) Ingest(ctx context.Context, up Upload) (*model.StoredImage, error) {
	if strings.TrimSpace(up.Filename) == "" {
		return nil, errcode.New(errcode.InvalidUpload, "no file provided")
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(up.ContentType)), "image/") {
		return nil, errcode.New(errcode.InvalidUpload, "file must be an image")
	}

	data, err := io.ReadAll(up.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errcode.Wrap(errcode.InvalidUpload, "file too large", err)
		}
		return nil, errcode.Wrap(errcode.InvalidUpload, "cannot read upload", err)
	}

	out, err := p.Transform(data)
	if err != nil {
		return nil, err
	}

	name := p.filename()
	if err := p.store.Save(ctx, name, out); err != nil {
		return nil, errcode.Wrap(errcode.ImageProcessingFailed, "store image", err)
	}
	logger.Info("image stored",
		zap.String("source", up.Filename),
		zap.String("filename", name),
		zap.Int("in_bytes", len(data)),
		zap.Int("out_bytes", len(out)),
	)
	return &model.StoredImage{Filename: name, URL: URLPrefix + name}, nil
}

// Transform 解码并输出标准 JPEG
func (p *Pipeline) Transform(data []byte) ([]byte, error) {
	img, err := p.decode(data)
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() < p.size || b.Dy() < p.size {
		logger.Debug("upscaling image", zap.Int("width", b.Dx()), zap.Int("height", b.Dy()), zap.Int("target", p.size))
	}
	return p.render(img)
}

func (p *Pipeline) decode(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errcode.Wrap(errcode.UnsupportedOrCorruptImage, "cannot decode image", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errcode.New(errcode.UnsupportedOrCorruptImage, "image has zero width or height")
	}
	// 解码器按头部尺寸一次性分配缓冲区，必须先拦截
	if int64(cfg.Width)*int64(cfg.Height) > p.maxPixels {
		return nil, errcode.New(errcode.UnsupportedOrCorruptImage,
			fmt.Sprintf("image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, p.maxPixels))
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errcode.Wrap(errcode.UnsupportedOrCorruptImage, "cannot decode image", err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errcode.New(errcode.UnsupportedOrCorruptImage, "image has zero width or height")
	}
	return img, nil
}

func (p *Pipeline) render(img image.Image) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, errcode.Wrap(errcode.ImageProcessingFailed, "transform image", fmt.Errorf("%v", r))
		}
	}()

	resized := p.normalize(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, errcode.Wrap(errcode.ImageProcessingFailed, "encode jpeg", err)
	}
	return buf.Bytes(), nil
}

// normalize 去 alpha、居中裁剪后缩放到 size×size，小图会被放大
func (p *Pipeline) normalize(img image.Image) *image.NRGBA {
	flat := opaque(img)
	b := flat.Bounds()
	square := imaging.Crop(flat, CenterSquare(b.Dx(), b.Dy()).Add(b.Min))
	return imaging.Resize(square, p.size, p.size, imaging.Lanczos)
}

// CenterSquare w×h 图中居中的最大正方形，奇数余量落在右/下侧
func CenterSquare(w, h int) image.Rectangle {
	size := w
	if h < size {
		size = h
	}
	left := (w - size) / 2
	top := (h - size) / 2
	return image.Rect(left, top, left+size, top+size)
}

// opaque 任意颜色模型转 NRGBA，丢弃 alpha、保留颜色通道
func opaque(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

func (p *Pipeline) filename() string {
	t := p.now()
	return fmt.Sprintf("%s_%06d%s%s", t.Format("20060102_150405"), t.Nanosecond()/int(time.Microsecond), filenameSuffix, outputExt)
}
