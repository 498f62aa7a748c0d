package resolver

import (
	"os"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"nss-netns/hosts"
	"nss-netns/utils"
)

type cachedTable struct {
	stamp utils.FileStamp
	table *hosts.Table
}

// Cache holds parsed hosts tables keyed by path. An entry is reused only
// while the file's mtime, size and inode are unchanged. It never starts a
// janitor goroutine; expired entries are dropped when another file loads.
type Cache struct {
	items *cache.Cache
	group singleflight.Group
}

// NewCache keeps an unused table for at most expiration. A non-positive
// expiration keeps tables until their file changes.
func NewCache(expiration time.Duration) *Cache {
	if expiration <= 0 {
		expiration = cache.NoExpiration
	}
	return &Cache{items: cache.New(expiration, 0)}
}

// Table returns the parsed table for path, reparsing when the file changed.
func (c *Cache) Table(path string) (*hosts.Table, error) {
	stamp, err := utils.Stamp(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.items.Delete(path)
			return nil, errors.Wrapf(ErrNotFound, "stat %s", path)
		}
		return nil, errors.Wrapf(hosts.ErrMalformed, "stat %s: %v", path, err)
	}
	if v, ok := c.items.Get(path); ok {
		if ct := v.(*cachedTable); ct.stamp == stamp {
			// refresh the idle expiration
			c.items.SetDefault(path, ct)
			return ct.table, nil
		}
	}

	v, err, _ := c.group.Do(path, func() (interface{}, error) {
		return c.load(path)
	})
	if err != nil {
		return nil, err
	}
	return v.(*hosts.Table), nil
}

func (c *Cache) load(path string) (*hosts.Table, error) {
	// stamp before reading so a concurrent rewrite forces another load
	stamp, err := utils.Stamp(path)
	if err != nil {
		return nil, errors.Wrapf(hosts.ErrMalformed, "stat %s: %v", path, err)
	}
	table, err := hosts.ParseFile(path)
	if err != nil {
		return nil, err
	}
	c.items.DeleteExpired()
	c.items.SetDefault(path, &cachedTable{stamp: stamp, table: table})
	log.Debugf("loaded %d records from %s", table.Len(), path)
	return table, nil
}

// Flush drops every cached table.
func (c *Cache) Flush() {
	c.items.Flush()
}

// Len is the number of cached tables, expired or not.
func (c *Cache) Len() int {
	return c.items.ItemCount()
}
