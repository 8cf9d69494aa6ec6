package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestGetListMiss(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewEventsCache(rdb, time.Minute)

	mock.ExpectGet(eventListKey).RedisNil()

	payload, ok := c.GetList(context.Background())
	assert.False(t, ok)
	assert.Nil(t, payload)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetListHit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewEventsCache(rdb, time.Minute)

	mock.ExpectGet(eventListKey).SetVal(`[{"id":"e1"}]`)

	payload, ok := c.GetList(context.Background())
	assert.True(t, ok)
	assert.Equal(t, []byte(`[{"id":"e1"}]`), payload)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetListUsesTTL(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewEventsCache(rdb, time.Minute)

	mock.ExpectSet(eventListKey, []byte(`[]`), time.Minute).SetVal("OK")

	c.SetList(context.Background(), []byte(`[]`))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidate(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewEventsCache(rdb, 0)

	mock.ExpectDel(eventListKey).SetVal(1)

	c.Invalidate(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDefaultTTL(t *testing.T) {
	rdb, _ := redismock.NewClientMock()
	c := NewEventsCache(rdb, 0)
	assert.Equal(t, defaultListTTL, c.ttl)
}
