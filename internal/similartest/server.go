// Package similartest поднимает in-process сервер euclidesproto.Similar для тестов.
package similartest

import (
	"bytes"
	"context"
	"image"
	"math"
	"net"
	"sort"
	"sync"
	"testing"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/perone/euclidesdb/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const gridSize = 4

// Server — упрощённый EuclidesDB: хранит признаки в памяти и ранжирует по L2.
type Server struct {
	proto.UnimplementedSimilarServer

	// Delay задерживает каждый ответ, для проверки таймаутов.
	Delay time.Duration

	mu           sync.Mutex
	items        map[int32][]float32
	failures     map[string][]codes.Code
	calls        []string
	dims         []image.Point
	shutdownType []int32
}

func NewServer() *Server {
	return &Server{
		items:    make(map[int32][]float32),
		failures: make(map[string][]codes.Code),
	}
}

// Start обслуживает srv через bufconn и возвращает клиентский канал.
// Сервер и канал закрываются в t.Cleanup.
func Start(t testing.TB, srv *Server) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	proto.RegisterSimilarServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufnet: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

// ListenTCP обслуживает srv на локальном TCP-порту и возвращает его адрес.
func ListenTCP(t testing.TB, srv *Server) *net.TCPAddr {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := grpc.NewServer()
	proto.RegisterSimilarServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	return lis.Addr().(*net.TCPAddr)
}

// FailNext заставляет следующие n вызовов method завершиться с code.
func (s *Server) FailNext(method string, code codes.Code, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.failures[method] = append(s.failures[method], code)
	}
}

// Calls возвращает имена вызванных методов в порядке поступления.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Dims возвращает размеры всех полученных изображений.
func (s *Server) Dims() []image.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]image.Point(nil), s.dims...)
}

// ShutdownTypes возвращает коды всех полученных запросов Shutdown.
func (s *Server) ShutdownTypes() []int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int32(nil), s.shutdownType...)
}

func (s *Server) Has(id int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	return ok
}

func (s *Server) AddImage(ctx context.Context, req *proto.AddImageRequest) (*proto.AddImageReply, error) {
	if err := s.begin(ctx, "AddImage"); err != nil {
		return nil, err
	}

	features, err := s.features(req.ImageData)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.items[req.ImageId] = features
	s.mu.Unlock()

	reply := &proto.AddImageReply{}
	for _, model := range req.Models {
		reply.Vectors = append(reply.Vectors, &proto.ItemVectors{
			Model:       model,
			Predictions: predictions(features),
			Features:    features,
		})
	}

	return reply, nil
}

func (s *Server) RemoveImage(ctx context.Context, req *proto.RemoveImageRequest) (*proto.RemoveImageReply, error) {
	if err := s.begin(ctx, "RemoveImage"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[req.ImageId]; !ok {
		return nil, status.Errorf(codes.NotFound, "image %d not found", req.ImageId)
	}
	delete(s.items, req.ImageId)

	return &proto.RemoveImageReply{ImageId: req.ImageId}, nil
}

func (s *Server) FindSimilarImage(ctx context.Context, req *proto.FindSimilarImageRequest) (*proto.FindSimilarImageReply, error) {
	if err := s.begin(ctx, "FindSimilarImage"); err != nil {
		return nil, err
	}
	if req.TopK <= 0 {
		return nil, status.Error(codes.Canceled, "Top K must be greater than zero.")
	}

	features, err := s.features(req.ImageData)
	if err != nil {
		return nil, err
	}

	return s.search(req.Models, features, int(req.TopK)), nil
}

func (s *Server) FindSimilarImageById(ctx context.Context, req *proto.FindSimilarImageByIdRequest) (*proto.FindSimilarImageReply, error) {
	if err := s.begin(ctx, "FindSimilarImageById"); err != nil {
		return nil, err
	}
	if req.TopK <= 0 {
		return nil, status.Error(codes.Canceled, "Top K must be greater than zero.")
	}

	s.mu.Lock()
	features, ok := s.items[req.ImageId]
	s.mu.Unlock()
	if !ok {
		return nil, status.Errorf(codes.NotFound, "image %d not found", req.ImageId)
	}

	return s.search(req.Models, features, int(req.TopK)), nil
}

func (s *Server) Shutdown(ctx context.Context, req *proto.ShutdownRequest) (*proto.ShutdownReply, error) {
	if err := s.begin(ctx, "Shutdown"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.shutdownType = append(s.shutdownType, req.ShutdownType)
	s.mu.Unlock()

	return &proto.ShutdownReply{Shutdown: true}, nil
}

// begin фиксирует вызов, применяет задержку и запланированные сбои.
func (s *Server) begin(ctx context.Context, method string) error {
	s.mu.Lock()
	s.calls = append(s.calls, method)
	var code codes.Code
	queue := s.failures[method]
	if len(queue) > 0 {
		code, s.failures[method] = queue[0], queue[1:]
	}
	delay := s.Delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return status.FromContextError(ctx.Err()).Err()
		}
	}

	if code != codes.OK {
		return status.Errorf(code, "injected %s failure", method)
	}

	return nil
}

// features декодирует изображение и усредняет яркость по сетке gridSize×gridSize.
func (s *Server) features(data []byte) ([]float32, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "cannot decode image: %v", err)
	}

	b := img.Bounds()
	s.mu.Lock()
	s.dims = append(s.dims, image.Pt(b.Dx(), b.Dy()))
	s.mu.Unlock()

	var sums, counts [gridSize * gridSize]float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			cell := (y-b.Min.Y)*gridSize/b.Dy()*gridSize + (x-b.Min.X)*gridSize/b.Dx()
			sums[cell] += (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)) / 0xffff
			counts[cell]++
		}
	}

	features := make([]float32, len(sums))
	for i := range sums {
		if counts[i] > 0 {
			features[i] = float32(sums[i] / counts[i])
		}
	}

	return features, nil
}

func (s *Server) search(models []string, query []float32, topK int) *proto.FindSimilarImageReply {
	type match struct {
		id   int32
		dist float32
	}

	s.mu.Lock()
	matches := make([]match, 0, len(s.items))
	for id, features := range s.items {
		matches = append(matches, match{id: id, dist: l2(query, features)})
	}
	s.mu.Unlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].dist == matches[j].dist {
			return matches[i].id < matches[j].id
		}
		return matches[i].dist < matches[j].dist
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}

	reply := &proto.FindSimilarImageReply{}
	for _, model := range models {
		res := &proto.SearchResults{Model: model}
		for _, m := range matches {
			res.TopKIds = append(res.TopKIds, m.id)
			res.Distances = append(res.Distances, m.dist)
		}
		reply.Results = append(reply.Results, res)
	}

	return reply
}

func predictions(features []float32) []float32 {
	var total float32
	for _, f := range features {
		total += f
	}

	out := make([]float32, len(features))
	for i, f := range features {
		if total > 0 {
			out[i] = f / total
		}
	}
	return out
}

func l2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		if i >= len(b) {
			break
		}
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}
