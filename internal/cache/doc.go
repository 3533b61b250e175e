// Package cache — кэш результатов завершённых job в Redis.
//
// Job сериализуется в JSON и хранится по ключу supertask:job:<id>
// с TTL. Кэш разгружает БД при опросе статуса job клиентами.
package cache
