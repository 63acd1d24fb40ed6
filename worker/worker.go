// Package worker implements the nonce-iterating worker loop of spec.md
// §4.6: single- and double-hash modes, job polling against a
// pool.WorkSlot, share emission, and telemetry publishing.
package worker

import (
	"encoding/binary"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/nthash/cryptonight"
	"github.com/nthash/cryptonight/affinity"
	"github.com/nthash/cryptonight/config"
	"github.com/nthash/cryptonight/pool"
	"github.com/nthash/cryptonight/scratchpad"
	"github.com/nthash/cryptonight/telemetry"
)

// stallSleep is the 100ms poll interval spec.md §4.6 specifies while a
// worker has no job.
const stallSleep = 100 * time.Millisecond

// telemetryStride publishes (hash_count, timestamp) every 16 iterations,
// per spec.md §4.6.
const telemetryStride = 16

// Worker drives one or two CryptoNight Cache scratchpads over a nonce
// range, comparing each digest against the job's target and emitting
// shares for matches.
type Worker struct {
	cfg    config.Thread
	slot   *pool.WorkSlot
	sink   cryptonight.ShareSink
	hub    *telemetry.Hub
	index  int
	label  string
	log    *zap.SugaredLogger
	cache0 *cryptonight.Cache
	cache1 *cryptonight.Cache // only used in Double mode
	pad0   *scratchpad.Pad
	pad1   *scratchpad.Pad
}

// New allocates a Worker's Cache(s) and, under cfg.HugePages, its
// scratchpad.Pad(s), but does not start its goroutine; call Run (typically
// via pool.Pool.Start) to begin hashing. The hash loops run on each Cache's
// own scratchpad array; the Pads do not back it.
func New(cfg config.Thread, slot *pool.WorkSlot, sink cryptonight.ShareSink, hub *telemetry.Hub, index int, label string, log *zap.SugaredLogger) (*Worker, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	pad0, err := scratchpad.Alloc(cfg.HugePages, log)
	if err != nil {
		return nil, err
	}

	w := &Worker{
		cfg:    cfg,
		slot:   slot,
		sink:   sink,
		hub:    hub,
		index:  index,
		label:  label,
		log:    log,
		cache0: cryptonight.NewCache(),
		pad0:   pad0,
	}

	if cfg.Mode == config.Double {
		pad1, err := scratchpad.Alloc(cfg.HugePages, log)
		if err != nil {
			scratchpad.Free(pad0)
			return nil, err
		}
		w.pad1 = pad1
		w.cache1 = cryptonight.NewCache()
	}

	if err := scratchpad.BindNUMA(pad0, cfg.CPUID); err != nil {
		log.Debugw("numa bind failed, continuing", "error", err)
	}

	return w, nil
}

// Run is the worker's goroutine entry point. done is closed to request
// shutdown — the Go-idiomatic form of spec.md §4.6's cooperative quit
// flag. Run returns once it observes done closed, freeing its
// scratchpad(s) first.
func (w *Worker) Run(done <-chan struct{}) {
	if err := affinity.Pin(w.cfg.CPUID); err != nil {
		w.log.Debugw("cpu pin failed, continuing unpinned", "error", err)
	}
	defer func() {
		scratchpad.Free(w.pad0)
		scratchpad.Free(w.pad1)
	}()

	if w.cfg.Mode == config.Double {
		w.runDouble(done)
		return
	}
	w.runSingle(done)
}

func (w *Worker) waitForJob(done <-chan struct{}) (*cryptonight.Job, uint64) {
	for {
		select {
		case <-done:
			return nil, 0
		default:
		}
		if job := w.slot.Job(); job != nil {
			return job, w.slot.Generation()
		}
		time.Sleep(stallSleep)
	}
}

func (w *Worker) runSingle(done <-chan struct{}) {
	var hashes uint64
	for {
		job, generation := w.waitForJob(done)
		if job == nil {
			return
		}
		w.slot.Acknowledge()

		blob := append([]byte(nil), job.Blob...)
		var nonce uint32
		if job.Nicehash {
			nonce = cryptonight.CalcNicehashNonce(binary.LittleEndian.Uint32(blob[cryptonight.NonceOffset:]), job.ResumeCnt)
		} else {
			nonce = cryptonight.CalcStartNonce(job.ResumeCnt)
		}

		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			if w.slot.Generation() != generation {
				break
			}

			binary.LittleEndian.PutUint32(blob[cryptonight.NonceOffset:], nonce)
			digest := w.cache0.Sum(blob, w.cfg.Variant)
			hashes++

			if cryptonight.Difficulty(digest, job.Target) {
				var d [32]byte
				copy(d[:], digest)
				w.sink.Submit(cryptonight.Share{JobID: job.ID, Nonce: nonce, Digest: d, PoolID: job.PoolID})
				if w.hub != nil {
					w.hub.PublishShare(w.label)
				}
			}

			nonce++
			if i%telemetryStride == telemetryStride-1 && w.hub != nil {
				w.hub.PublishHashes(w.index, w.label, hashes, time.Now())
			}
			runtime.Gosched()
		}
	}
}

func (w *Worker) runDouble(done <-chan struct{}) {
	var hashes uint64
	for {
		job, generation := w.waitForJob(done)
		if job == nil {
			return
		}
		w.slot.Acknowledge()

		blobA := append([]byte(nil), job.Blob...)
		blobB := append([]byte(nil), job.Blob...)

		var nonceA uint32
		if job.Nicehash {
			nonceA = cryptonight.CalcNicehashNonce(binary.LittleEndian.Uint32(blobA[cryptonight.NonceOffset:]), job.ResumeCnt)
		} else {
			nonceA = cryptonight.CalcStartNonce(job.ResumeCnt)
		}
		nonceB := nonceA + 1

		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			if w.slot.Generation() != generation {
				break
			}

			binary.LittleEndian.PutUint32(blobA[cryptonight.NonceOffset:], nonceA)
			binary.LittleEndian.PutUint32(blobB[cryptonight.NonceOffset:], nonceB)
			digestA, digestB := cryptonight.DoubleHash(w.cache0, w.cache1, blobA, blobB, w.cfg.Variant)
			hashes += 2

			w.checkShare(job, nonceA, digestA)
			w.checkShare(job, nonceB, digestB)

			nonceA += 2
			nonceB += 2
			if i%telemetryStride == telemetryStride-1 && w.hub != nil {
				w.hub.PublishHashes(w.index, w.label, hashes, time.Now())
			}
			runtime.Gosched()
		}
	}
}

func (w *Worker) checkShare(job *cryptonight.Job, nonce uint32, digest []byte) {
	if !cryptonight.Difficulty(digest, job.Target) {
		return
	}
	var d [32]byte
	copy(d[:], digest)
	w.sink.Submit(cryptonight.Share{JobID: job.ID, Nonce: nonce, Digest: d, PoolID: job.PoolID})
	if w.hub != nil {
		w.hub.PublishShare(w.label)
	}
}
