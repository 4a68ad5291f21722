package middleware

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade") ||
		r.Header.Get("Upgrade") != ""
}

func isNoBodyStatus(code int) bool {
	// 204 No Content, 304 Not Modified, 1xx Informational
	return (code >= 100 && code < 200) || code == http.StatusNoContent || code == http.StatusNotModified
}

// CompressConfig 壓縮等級。樣本陣列（/v1/fill）多為重複度低的浮點數，預設取最快的等級。
type CompressConfig struct {
	GzipLevel int
	ZstdLevel zstd.EncoderLevel
}

var DefaultCompressConfig = CompressConfig{
	GzipLevel: gzip.BestSpeed,
	ZstdLevel: zstd.SpeedFastest,
}

// compressor 每組設定各自一組 writer pool。
type compressor struct {
	cfg      CompressConfig
	gzipPool sync.Pool
	zstdPool sync.Pool
}

func (c *compressor) getZstdWriter(w io.Writer) (*zstd.Encoder, error) {
	if v := c.zstdPool.Get(); v != nil {
		zw := v.(*zstd.Encoder)
		zw.Reset(w)
		return zw, nil
	}
	return zstd.NewWriter(w,
		zstd.WithEncoderLevel(c.cfg.ZstdLevel),
		zstd.WithEncoderConcurrency(1),
	)
}

func (c *compressor) releaseZstdWriter(zw *zstd.Encoder) {
	_ = zw.Close()
	c.zstdPool.Put(zw)
}

func (c *compressor) getGzipWriter(w io.Writer) (*gzip.Writer, error) {
	if v := c.gzipPool.Get(); v != nil {
		gw := v.(*gzip.Writer)
		gw.Reset(w)
		return gw, nil
	}
	return gzip.NewWriterLevel(w, c.cfg.GzipLevel)
}

func (c *compressor) releaseGzipWriter(gw *gzip.Writer) {
	_ = gw.Close()
	c.gzipPool.Put(gw)
}

type compressResponseWriter struct {
	http.ResponseWriter
	w        io.Writer // 指向 gzip.Writer 或 zstd.Encoder
	disabled bool      // 204/304 時動態取消壓縮
}

func (cw *compressResponseWriter) Write(b []byte) (int, error) {
	if cw.disabled {
		return cw.ResponseWriter.Write(b)
	}
	cw.Header().Del("Content-Length")
	if cw.Header().Get("Content-Type") == "" {
		cw.Header().Set("Content-Type", http.DetectContentType(b))
	}
	return cw.w.Write(b)
}

func (cw *compressResponseWriter) WriteHeader(code int) {
	cw.Header().Del("Content-Length")
	if isNoBodyStatus(code) {
		cw.disabled = true
		cw.Header().Del("Content-Encoding")
		cw.Header().Del("Vary")
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *compressResponseWriter) Flush() {
	if !cw.disabled {
		if f, ok := cw.w.(interface{ Flush() error }); ok {
			_ = f.Flush()
		}
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *compressResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := cw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying response writer does not support Hijacker")
	}
	return hj.Hijack()
}

// Compression 以 DefaultCompressConfig 壓縮回應，zstd 優先於 gzip。
func Compression(next http.Handler) http.Handler {
	return defaultCompressor(next)
}

var defaultCompressor = NewCompression(DefaultCompressConfig)

// NewCompression 依設定建立壓縮 middleware。encoder 建立失敗時退回不壓縮。
func NewCompression(cfg CompressConfig) func(http.Handler) http.Handler {
	c := &compressor{cfg: cfg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead || isWebSocketUpgrade(r) || w.Header().Get("Content-Encoding") != "" {
				next.ServeHTTP(w, r)
				return
			}
			encoding := r.Header.Get("Accept-Encoding")

			if strings.Contains(encoding, "zstd") {
				if zw, err := c.getZstdWriter(w); err == nil {
					w.Header().Set("Content-Encoding", "zstd")
					w.Header().Add("Vary", "Accept-Encoding")
					cw := &compressResponseWriter{ResponseWriter: w, w: zw}
					defer func() {
						// 204/304 不能帶 footer
						if cw.disabled {
							zw.Reset(io.Discard)
						}
						c.releaseZstdWriter(zw)
					}()
					next.ServeHTTP(cw, r)
					return
				}
			}

			if strings.Contains(encoding, "gzip") {
				if gw, err := c.getGzipWriter(w); err == nil {
					w.Header().Set("Content-Encoding", "gzip")
					w.Header().Add("Vary", "Accept-Encoding")
					cw := &compressResponseWriter{ResponseWriter: w, w: gw}
					defer func() {
						if cw.disabled {
							gw.Reset(io.Discard)
						}
						c.releaseGzipWriter(gw)
					}()
					next.ServeHTTP(cw, r)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
