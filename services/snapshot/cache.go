package snapshot

import (
	"fmt"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/webtor-io/lazymap"

	"github.com/koyomi-io/koyomi/models"
	"github.com/koyomi-io/koyomi/services/contract"
)

// blobCache memoizes decoded contract values so a blob is deserialized at
// most once per process lifetime. Writes drop the memo entry; no expiry.
type blobCache[T any] struct {
	codec  *Codec
	prefix string
	memo   *lazymap.LazyMap[*T]
}

func newBlobCache[T any](codec *Codec, prefix string) blobCache[T] {
	return blobCache[T]{
		codec:  codec,
		prefix: prefix,
		memo:   lazymap.New[*T](&lazymap.Config{}),
	}
}

func (c *blobCache[T]) key(id int64) string {
	return fmt.Sprintf("%v:%v", c.prefix, id)
}

func (c *blobCache[T]) get(id int64, version int, blob []byte, size int) *T {
	v, _ := c.memo.Get(c.key(id), func() (*T, error) {
		return c.decode(id, version, blob, size), nil
	})
	return v
}

func (c *blobCache[T]) decode(id int64, version int, blob []byte, size int) *T {
	if len(blob) == 0 || size <= 0 || version != ContractVersion {
		return nil
	}
	v := new(T)
	if err := c.codec.Decode(blob, size, v); err != nil {
		log.WithError(err).
			WithField(c.prefix+"_id", id).
			Warn("dropping unreadable contract blob")
		return nil
	}
	return v
}

func (c *blobCache[T]) put(id int64, v *T) ([]byte, int, error) {
	data, size, err := c.codec.Encode(v)
	if err != nil {
		return nil, 0, err
	}
	c.memo.Drop(c.key(id))
	log.WithField(c.prefix+"_id", id).
		WithField("blob_size", humanize.Bytes(uint64(len(data)))).
		Debug("contract serialized")
	return data, size, nil
}

func (c *blobCache[T]) invalidate(id int64) {
	c.memo.Drop(c.key(id))
}

// GroupContracts is the snapshot cache for group contracts.
type GroupContracts struct {
	cache blobCache[contract.GroupContract]
}

func NewGroupContracts(codec *Codec) *GroupContracts {
	return &GroupContracts{cache: newBlobCache[contract.GroupContract](codec, "group")}
}

// Get returns the cached contract or nil when the group has no usable
// snapshot (absent, corrupt or version-mismatched blob).
func (s *GroupContracts) Get(g *models.Group) *contract.GroupContract {
	return s.cache.get(g.GroupID, g.ContractVersion, g.ContractBlob, g.ContractSize)
}

// GetOrEmpty never returns nil: a group without a snapshot yields an empty
// default contract callers must tolerate.
func (s *GroupContracts) GetOrEmpty(g *models.Group) *contract.GroupContract {
	if c := s.Get(g); c != nil {
		return c
	}
	return EmptyGroupContract(g)
}

// Set serializes the contract onto the group's blob columns, stamps the
// current version and invalidates the memo. It does not persist the group.
func (s *GroupContracts) Set(g *models.Group, c *contract.GroupContract) error {
	data, size, err := s.cache.put(g.GroupID, c)
	if err != nil {
		return err
	}
	g.ContractBlob = data
	g.ContractSize = size
	g.ContractVersion = ContractVersion
	return nil
}

func (s *GroupContracts) Invalidate(id int64) {
	s.cache.invalidate(id)
}

// SeriesContracts is the snapshot cache for series contracts.
type SeriesContracts struct {
	cache blobCache[contract.SeriesContract]
}

func NewSeriesContracts(codec *Codec) *SeriesContracts {
	return &SeriesContracts{cache: newBlobCache[contract.SeriesContract](codec, "series")}
}

func (s *SeriesContracts) Get(ser *models.Series) *contract.SeriesContract {
	return s.cache.get(ser.SeriesID, ser.ContractVersion, ser.ContractBlob, ser.ContractSize)
}

func (s *SeriesContracts) GetOrEmpty(ser *models.Series) *contract.SeriesContract {
	if c := s.Get(ser); c != nil {
		return c
	}
	return &contract.SeriesContract{SeriesID: ser.SeriesID, GroupID: ser.GroupID}
}

func (s *SeriesContracts) Set(ser *models.Series, c *contract.SeriesContract) error {
	data, size, err := s.cache.put(ser.SeriesID, c)
	if err != nil {
		return err
	}
	ser.ContractBlob = data
	ser.ContractSize = size
	ser.ContractVersion = ContractVersion
	return nil
}

func (s *SeriesContracts) Invalidate(id int64) {
	s.cache.invalidate(id)
}

// EmptyGroupContract is the informationally empty but structurally valid
// default contract for a group with no snapshot.
func EmptyGroupContract(g *models.Group) *contract.GroupContract {
	return &contract.GroupContract{
		GroupID:              g.GroupID,
		AllTags:              contract.NewStringSet(),
		AllCustomTags:        contract.NewStringSet(),
		AllTitles:            contract.NewStringSet(),
		SeriesTypes:          contract.NewStringSet(),
		AllVideoQuality:      contract.NewStringSet(),
		VideoQualityEpisodes: contract.NewStringSet(),
		AudioLanguages:       contract.NewStringSet(),
		SubtitleLanguages:    contract.NewStringSet(),
	}
}
