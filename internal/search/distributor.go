package search

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/fleveque/deck-image-service/internal/model"
)

// Distributor is the slide distribution engine: it consumes completed
// topics in whatever order they arrive and accumulates per-slide galleries,
// emitting incremental events as each slide's gallery grows and a final
// ready event once every topic the slide requested has resolved.
//
// Completion order is independent of submission order — the engine tracks
// an expected-topic count per slide and never assumes the orchestrator
// finishes topics in sequence.
type Distributor struct {
	ctx         context.Context
	events      chan<- model.Event
	maxPerSlide int
	logger      *zap.Logger

	mu         sync.Mutex
	slideIndex map[string]int
	expected   map[string]int
	galleries  map[string]*gallery
	topicsDone int
	slidesDone int
}

type gallery struct {
	topicOrder []string
	byTopic    map[string][]model.ImageCandidate
	seen       map[string]struct{} // per-slide identity safety net
	flat       []model.ImageCandidate
	ready      bool
}

// NewDistributor builds the engine for one run. The topics slice must be
// the same deduplicated set handed to the orchestrator — it determines how
// many topic completions each slide waits for.
func NewDistributor(ctx context.Context, outline model.Outline, topics []model.SearchTopic, maxPerSlide int, events chan<- model.Event, logger *zap.Logger) *Distributor {
	if maxPerSlide <= 0 {
		maxPerSlide = 6
	}

	d := &Distributor{
		ctx:         ctx,
		events:      events,
		maxPerSlide: maxPerSlide,
		logger:      logger,
		slideIndex:  make(map[string]int, len(outline.Slides)),
		expected:    make(map[string]int, len(outline.Slides)),
		galleries:   make(map[string]*gallery, len(outline.Slides)),
	}

	for i, slide := range outline.Slides {
		d.slideIndex[slide.ID] = i
	}
	for _, t := range topics {
		for _, slideID := range t.SlideIDs {
			if _, ok := d.slideIndex[slideID]; !ok {
				continue
			}
			d.expected[slideID]++
			if _, ok := d.galleries[slideID]; !ok {
				d.galleries[slideID] = &gallery{
					byTopic: make(map[string][]model.ImageCandidate),
					seen:    make(map[string]struct{}),
				}
			}
		}
	}
	return d
}

// TopicCompleted records one resolved topic (successful or empty) and fans
// its images out to every slide that requested it. Safe for concurrent use;
// callers may invoke it from any goroutine in any order.
func (d *Distributor) TopicCompleted(t model.SearchTopic, images []model.ImageCandidate) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.topicsDone++
	if len(images) == 0 {
		d.logger.Debug("topic resolved with no images", zap.String("topic", t.Text))
	}
	d.emit(model.Event{
		Type:             model.EventTopicImagesFound,
		Topic:            t.Text,
		ImagesCount:      len(images),
		SlidesUsingTopic: t.SlideIDs,
	})

	// A topic shared by several slides gets its images partitioned among
	// them round-robin — never copied. Assigning the same image to two
	// slides would break the deck-wide no-reuse guarantee the selector
	// just paid for.
	shares := make(map[string][]model.ImageCandidate, len(t.SlideIDs))
	if len(t.SlideIDs) > 0 {
		for i, img := range images {
			slideID := t.SlideIDs[i%len(t.SlideIDs)]
			shares[slideID] = append(shares[slideID], img)
		}
	}

	for _, slideID := range t.SlideIDs {
		g, ok := d.galleries[slideID]
		if !ok {
			continue
		}
		if _, done := g.byTopic[t.Text]; done {
			continue // each topic resolves exactly once per slide
		}

		// The selector already enforces deck-wide no-reuse; this dedup only
		// guards against the same identity slipping into one slide twice.
		assigned := make([]model.ImageCandidate, 0, len(shares[slideID]))
		for _, img := range shares[slideID] {
			if _, dup := g.seen[img.Identity()]; dup {
				continue
			}
			img.Topic = t.Text
			g.seen[img.Identity()] = struct{}{}
			assigned = append(assigned, img)
		}

		g.byTopic[t.Text] = assigned
		g.topicOrder = append(g.topicOrder, t.Text)
		g.flat = append(g.flat, assigned...)

		d.emit(model.Event{
			Type:        model.EventSlideImagesFound,
			SlideID:     slideID,
			SlideIndex:  d.slideIndex[slideID],
			Images:      model.Refs(g.flat),
			ImagesCount: len(g.flat),
			TopicsUsed:  append([]string(nil), g.topicOrder...),
		})

		d.expected[slideID]--
		if d.expected[slideID] == 0 && !g.ready {
			g.ready = true
			d.slidesDone++
			final := g.flat
			if len(final) > d.maxPerSlide {
				final = final[:d.maxPerSlide]
			}
			d.emit(model.Event{
				Type:        model.EventSlideImagesReady,
				SlideID:     slideID,
				SlideIndex:  d.slideIndex[slideID],
				Images:      model.Refs(final),
				ImagesCount: len(final),
				TopicsUsed:  append([]string(nil), g.topicOrder...),
			})
		}
	}
}

// Finish emits the terminal event with aggregate run statistics.
func (d *Distributor) Finish() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emit(model.Event{
		Type:                 model.EventCollectionComplete,
		TotalTopicsSearched:  d.topicsDone,
		TotalSlidesProcessed: d.slidesDone,
	})
}

// emit sends an event, giving up if the run context is cancelled so a
// stalled or departed consumer can't wedge the pipeline. Caller holds d.mu.
func (d *Distributor) emit(ev model.Event) {
	select {
	case d.events <- ev:
	case <-d.ctx.Done():
	}
}

// SlideGallery is the final per-slide result used by the non-streaming API
// and the CLI.
type SlideGallery struct {
	SlideID    string           `json:"slide_id"`
	SlideIndex int              `json:"slide_index"`
	Images     []model.ImageRef `json:"images"`
	TopicsUsed []string         `json:"topics_used"`
}

// Galleries returns every slide's final capped gallery, ordered by slide
// index. Call after the run's event channel has closed.
func (d *Distributor) Galleries() []SlideGallery {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]SlideGallery, 0, len(d.galleries))
	for slideID, g := range d.galleries {
		final := g.flat
		if len(final) > d.maxPerSlide {
			final = final[:d.maxPerSlide]
		}
		out = append(out, SlideGallery{
			SlideID:    slideID,
			SlideIndex: d.slideIndex[slideID],
			Images:     model.Refs(final),
			TopicsUsed: append([]string(nil), g.topicOrder...),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlideIndex < out[j].SlideIndex })
	return out
}

// ImagesAssigned reports the total images assigned across all slides.
func (d *Distributor) ImagesAssigned() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	total := 0
	for _, g := range d.galleries {
		total += len(g.flat)
	}
	return total
}
