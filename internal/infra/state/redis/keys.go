package redisstate

import (
	"fmt"
	"strings"
)

// defaultKeyPrefix 是未配置前缀时使用的 Redis key 前缀
const defaultKeyPrefix = "chat:"

// keyspace 负责生成房间相关的 Redis key 和频道名
type keyspace struct {
	prefix string
}

func newKeyspace(prefix string) keyspace {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return keyspace{prefix: prefix}
}

// --- Key Generation Helpers ---
func (k keyspace) roomMetaKey(name string) string {
	return fmt.Sprintf("%sroom:%s:meta", k.prefix, name)
}

func (k keyspace) roomParticipantsKey(name string) string {
	return fmt.Sprintf("%sroom:%s:participants", k.prefix, name)
}

func (k keyspace) roomMessagesKey(name string) string {
	return fmt.Sprintf("%sroom:%s:messages", k.prefix, name)
}

func (k keyspace) roomPubSubChannel(name string) string {
	return fmt.Sprintf("%sroom:%s:pubsub", k.prefix, name)
}

// roomKeyPattern 匹配所有房间相关的 key，用于 SCAN
func (k keyspace) roomKeyPattern() string {
	return k.prefix + "room:*"
}

// roomNameFromStateKey 从成员集合或历史列表的 key 中解析房间名
func (k keyspace) roomNameFromStateKey(key string) (string, bool) {
	rest := strings.TrimPrefix(key, k.prefix+"room:")
	if rest == key {
		return "", false
	}
	for _, suffix := range []string{":participants", ":messages"} {
		if strings.HasSuffix(rest, suffix) {
			name := strings.TrimSuffix(rest, suffix)
			return name, name != ""
		}
	}
	return "", false
}
