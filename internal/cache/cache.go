package cache

import "time"

// Cache хранит строковые значения с TTL. Используется для разметки страниц архива.
type Cache interface {
	Get(key string) (string, bool)
	Set(key, value string, ttl time.Duration)
	Delete(key string)
}
