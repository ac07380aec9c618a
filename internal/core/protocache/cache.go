// Package protocache 记住每个远端最近一次接受的协议
//
// 发起方拨号时把缓存命中的协议移到提议列表最前面，
// 对同一个远端的后续协商通常只需要一次往返。
// 缓存只影响提议顺序，不改变协商语义：被拒绝时照常继续提议下一个。
package protocache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dep2p/go-mss/pkg/types"
)

// Cache 远端地址 -> 最近接受的协议
//
// nil *Cache 表示缓存关闭，所有方法都是空操作。
type Cache struct {
	lru *lru.Cache[string, types.ProtocolID]
}

// New 创建容量为 size 的缓存
func New(size int) (*Cache, error) {
	l, err := lru.New[string, types.ProtocolID](size)
	if err != nil {
		return nil, fmt.Errorf("protocache: %w", err)
	}
	return &Cache{lru: l}, nil
}

// Record 记录远端接受的协议
func (c *Cache) Record(remote string, id types.ProtocolID) {
	if c == nil {
		return
	}
	c.lru.Add(remote, id)
}

// Lookup 查询远端最近接受的协议
func (c *Cache) Lookup(remote string) (types.ProtocolID, bool) {
	if c == nil {
		return "", false
	}
	return c.lru.Get(remote)
}

// Forget 删除远端的缓存项
func (c *Cache) Forget(remote string) {
	if c == nil {
		return
	}
	c.lru.Remove(remote)
}

// Len 返回缓存项数量
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

// Order 返回按缓存调整后的提议顺序
//
// 缓存命中且该协议在 protocols 中时，把它移到最前，其余保持原顺序。
// 总是返回新切片。
func (c *Cache) Order(remote string, protocols []types.ProtocolID) []types.ProtocolID {
	out := make([]types.ProtocolID, 0, len(protocols))
	cached, ok := c.Lookup(remote)
	if !ok {
		return append(out, protocols...)
	}

	found := false
	for _, p := range protocols {
		if p == cached {
			found = true
			break
		}
	}
	if !found {
		return append(out, protocols...)
	}

	out = append(out, cached)
	for _, p := range protocols {
		if p != cached {
			out = append(out, p)
		}
	}
	return out
}
