package interact

import (
	"sync"

	"github.com/atotto/clipboard"
)

// Clipboard 是系统剪贴板能力。
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// SystemClipboard 通过 github.com/atotto/clipboard 读写操作系统剪贴板。
type SystemClipboard struct{}

func (SystemClipboard) ReadAll() (string, error)  { return clipboard.ReadAll() }
func (SystemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// MemoryClipboard 是进程内剪贴板，适用于测试与无头环境。
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
}

func (m *MemoryClipboard) ReadAll() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *MemoryClipboard) WriteAll(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}
