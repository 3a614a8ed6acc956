package catalog

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/rushteam/wardrobe/core"
	"github.com/rushteam/wardrobe/pkg/logging"
)

// DecodeJSON 读取目录记录。支持两种格式：
//   - JSON 数组：[{"id": 1, ...}, ...]
//   - JSON Lines：每行一个物品对象
//
// JSON Lines 中无法解析的行会记录告警并跳过；数组格式整体解析失败则返回错误。
func DecodeJSON(r io.Reader) ([]*core.Item, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: read: %w", err)
	}

	if first == '[' {
		var items []*core.Item
		if err := json.NewDecoder(br).Decode(&items); err != nil {
			return nil, fmt.Errorf("catalog: decode json array: %w", err)
		}
		return items, nil
	}

	var items []*core.Item
	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		it := &core.Item{}
		if err := json.Unmarshal(raw, it); err != nil {
			logging.Warn().Int("line", line).Err(err).Msg("catalog: skip malformed record")
			continue
		}
		items = append(items, it)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("catalog: scan json lines: %w", err)
	}
	return items, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

// LoadFile 从 JSON / JSON Lines 文件加载目录。
func LoadFile(path string, opts ...Option) (*Catalog, error) {
	items, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(items, opts...)
}

// ReadFile 读取文件中的原始物品记录（尚未校验）。
func ReadFile(path string) ([]*core.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()
	return DecodeJSON(f)
}

// EncodeJSONLines 以 JSON Lines 格式写出物品。
func EncodeJSONLines(w io.Writer, items []*core.Item) error {
	enc := json.NewEncoder(w)
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return fmt.Errorf("catalog: encode item %d: %w", it.ID, err)
		}
	}
	return nil
}
