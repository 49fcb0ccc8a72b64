package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"peridot-indexer-sol/internal/consts"
	"peridot-indexer-sol/internal/pb"
)

// 每类集合写入各自的文件
var fileNames = map[uint32]string{
	consts.CollectionTypeToken:    "spl_token.jsonl",
	consts.CollectionTypeMetadata: "metaplex.jsonl",
	consts.CollectionTypeBridge:   "wormhole.jsonl",
}

// JsonlStorage 以 protojson 逐行追加事件。
// dir 非空时按集合类型分文件，否则全部写入 out。
type JsonlStorage struct {
	dir string
	out io.Writer
	mu  sync.Mutex
}

func NewJsonlStorage(dir string) *JsonlStorage {
	return &JsonlStorage{dir: dir}
}

// NewJsonlWriter 所有集合写入同一个 writer，例如 os.Stdout
func NewJsonlWriter(out io.Writer) *JsonlStorage {
	return &JsonlStorage{out: out}
}

// PutBlock 依次写入一个区块的全部集合，返回写入的事件数
func (s *JsonlStorage) PutBlock(collections []pb.Collection) (int, error) {
	total := 0
	for _, c := range collections {
		if err := s.PutCollection(c); err != nil {
			return total, err
		}
		total += c.Len()
	}
	return total, nil
}

// PutCollection 追加一个集合中的全部事件，空集合不创建文件
func (s *JsonlStorage) PutCollection(c pb.Collection) error {
	if c == nil || c.Len() == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dir == "" {
		return writeEvents(s.out, c)
	}

	name, ok := fileNames[c.CollectionType()]
	if !ok {
		return fmt.Errorf("unknown collection type %d", c.CollectionType())
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	file, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()
	return writeEvents(file, c)
}

func writeEvents(w io.Writer, c pb.Collection) error {
	writer := bufio.NewWriter(w)
	for _, msg := range c.EventMessages() {
		line, err := pb.MarshalJSON(msg)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
