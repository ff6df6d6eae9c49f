// Package translator converts WebGL2 (GLSL ES 3.00) shader source into the dialect the
// current GL context accepts.
package translator

import (
	"context"
	"fmt"
	"sync"

	gst "github.com/richinsley/goshadertranslator"

	"github.com/richinsley/goshaderquad/graphics"
)

var (
	once       sync.Once
	translator *gst.ShaderTranslator
	initErr    error
)

// Get returns the process-wide translator, creating it on first use.
func Get() (*gst.ShaderTranslator, error) {
	once.Do(func() {
		translator, initErr = gst.NewShaderTranslator(context.Background())
	})
	return translator, initErr
}

// Translated is shader source ready for the driver, plus the names the translator gave
// to the shader's variables.
type Translated struct {
	Code   string
	Mapped map[string]string
}

// MappedName returns the translated name of a variable, or name itself if the
// translator did not rename it.
func (t *Translated) MappedName(name string) string {
	if m, ok := t.Mapped[name]; ok && m != "" {
		return m
	}
	return name
}

// Translate converts src for a desktop core profile, or for GLES when gles is set.
func Translate(src string, typ graphics.ShaderType, gles bool) (*Translated, error) {
	tr, err := Get()
	if err != nil {
		return nil, fmt.Errorf("shader translator unavailable: %w", err)
	}

	format := gst.OutputFormatGLSL410
	if gles {
		format = gst.OutputFormatESSL
	}
	out, err := tr.TranslateShader(src, typ.String(), gst.ShaderSpecWebGL2, format)
	if err != nil {
		return nil, err
	}

	t := &Translated{Code: out.Code, Mapped: make(map[string]string, len(out.Variables))}
	for name, v := range out.Variables {
		t.Mapped[name] = v.MappedName
	}
	return t, nil
}
