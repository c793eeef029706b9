package controller_test

import (
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupcall/broker"
	"groupcall/coordinator"
	"groupcall/database/memory"
	"groupcall/media"
	"groupcall/media/mediatest"
	"groupcall/metric"
	"groupcall/room"
	"groupcall/signal/controller"
	"groupcall/types/client/request"
	"groupcall/types/client/response"
)

const waitFor = time.Second

// fakeSocket feeds scripted client messages to the controller and
// collects everything written back.
type fakeSocket struct {
	in  chan []byte
	out chan []byte
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{
		in:  make(chan []byte, 16),
		out: make(chan []byte, 16),
	}
}

func (f *fakeSocket) Read(v any) error {
	raw, ok := <-f.in
	if !ok {
		return io.EOF
	}
	return json.Unmarshal(raw, v)
}

func (f *fakeSocket) Write(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f.out <- raw
	return nil
}

func (f *fakeSocket) Close() error {
	return nil
}

func (f *fakeSocket) send(t *testing.T, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	f.in <- raw
}

func (f *fakeSocket) expect(t *testing.T, v any) {
	t.Helper()
	select {
	case raw := <-f.out:
		require.NoError(t, json.Unmarshal(raw, v))
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for server message")
	}
}

// disconnect simulates the client closing the websocket.
func (f *fakeSocket) disconnect() {
	close(f.in)
}

type fixture struct {
	engine     *mediatest.Engine
	directory  *room.Directory
	controller *controller.Controller
}

func newFixture() *fixture {
	eng := mediatest.NewEngine()
	met := metric.New(metric.Config{})
	brk := broker.New()
	dir := room.NewDirectory(eng, met)
	cod := coordinator.New(dir, memory.New(), brk, met)
	return &fixture{
		engine:     eng,
		directory:  dir,
		controller: controller.New(cod, brk, met),
	}
}

// connect starts Process for the socket and returns the channel that
// yields its result after disconnect.
func (f *fixture) connect(sock *fakeSocket) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- f.controller.Process(sock)
	}()
	return done
}

func TestGroupCallSession(t *testing.T) {
	f := newFixture()

	sockA := newFakeSocket()
	doneA := f.connect(sockA)
	sockA.send(t, request.Join{Type: request.JOIN, RoomID: "r1"})
	var joined response.Joined
	sockA.expect(t, &joined)
	assert.Equal(t, response.JOINED, joined.Type)

	sockB := newFakeSocket()
	doneB := f.connect(sockB)
	sockB.send(t, request.Join{Type: request.JOIN, RoomID: "r1"})
	sockB.expect(t, &joined)
	assert.Equal(t, response.JOINED, joined.Type)

	r, ok := f.directory.Lookup("r1")
	require.True(t, ok)
	assert.Len(t, r.Participants(), 2)
	assert.Len(t, f.engine.ConnectPairs(), 2)

	sockA.send(t, request.Offer{Type: request.OFFER, SDPOffer: "sdp-a"})
	var answer response.Answer
	sockA.expect(t, &answer)
	assert.Equal(t, response.ANSWER, answer.Type)
	assert.Equal(t, "answer:sdp-a", answer.SDPAnswer)

	// A drops without an explicit leave; its session is cleaned up and
	// the room keeps B
	sockA.disconnect()
	assert.Error(t, <-doneA)
	assert.Len(t, r.Participants(), 1)
	assert.Equal(t, 1, f.directory.Count())

	sockB.send(t, request.Leave{Type: request.LEAVE})
	assert.Eventually(t, func() bool {
		return f.directory.Count() == 0
	}, waitFor, 10*time.Millisecond)
	assert.Equal(t, 1, f.engine.ReleasedPipelineCount())

	// disconnect after leave must not clean up twice
	sockB.disconnect()
	assert.Error(t, <-doneB)
	assert.Equal(t, 1, f.engine.ReleasedPipelineCount())
}

func TestOfferBeforeJoinRepliesError(t *testing.T) {
	f := newFixture()

	sock := newFakeSocket()
	done := f.connect(sock)
	sock.send(t, request.Offer{Type: request.OFFER, SDPOffer: "sdp"})

	var reply response.Error
	sock.expect(t, &reply)
	assert.Equal(t, response.ERROR, reply.Type)
	assert.Equal(t, request.OFFER, reply.Request)
	assert.Equal(t, "no active endpoint", reply.Message)
	assert.Equal(t, 0, f.engine.EndpointCreateCalls())

	sock.disconnect()
	<-done
}

func TestCandidateBeforeJoinRepliesError(t *testing.T) {
	f := newFixture()

	sock := newFakeSocket()
	done := f.connect(sock)
	sock.send(t, request.Candidate{
		Type:      request.CANDIDATE,
		Candidate: media.ICECandidate{Candidate: "candidate:1"},
	})

	var reply response.Error
	sock.expect(t, &reply)
	assert.Equal(t, request.CANDIDATE, reply.Request)
	assert.Equal(t, 0, f.engine.EndpointCreateCalls())

	sock.disconnect()
	<-done
}

func TestJoinFailureRepliesError(t *testing.T) {
	f := newFixture()
	f.engine.FailEndpointCreate(errors.New("out of resources"))

	sock := newFakeSocket()
	done := f.connect(sock)
	sock.send(t, request.Join{Type: request.JOIN, RoomID: "r1"})

	var reply response.Error
	sock.expect(t, &reply)
	assert.Equal(t, response.ERROR, reply.Type)
	assert.Equal(t, request.JOIN, reply.Request)
	assert.Equal(t, 0, f.directory.Count())

	sock.disconnect()
	<-done
}

func TestUnknownMessageTypeIsIgnored(t *testing.T) {
	f := newFixture()

	sock := newFakeSocket()
	done := f.connect(sock)
	sock.send(t, map[string]string{"type": "bogus"})
	sock.send(t, request.Join{Type: request.JOIN, RoomID: "r1"})

	// the first reply is the join confirmation, so the unknown message
	// produced no output
	var joined response.Joined
	sock.expect(t, &joined)
	assert.Equal(t, response.JOINED, joined.Type)

	sock.disconnect()
	<-done
}

func TestDiscoveredCandidateIsRelayed(t *testing.T) {
	f := newFixture()

	sock := newFakeSocket()
	done := f.connect(sock)
	sock.send(t, request.Join{Type: request.JOIN, RoomID: "r1"})
	var joined response.Joined
	sock.expect(t, &joined)

	ep := f.engine.Pipelines()[0].Endpoints()[0]
	candidate := media.ICECandidate{Candidate: "candidate:1", SDPMid: "0", SDPMLineIndex: 0}
	require.True(t, ep.FireCandidate(candidate))

	var out response.Candidate
	sock.expect(t, &out)
	assert.Equal(t, response.CANDIDATE, out.Type)
	assert.Equal(t, candidate, out.Candidate)

	sock.disconnect()
	<-done
}

func TestCandidatesRouteToOwningConnection(t *testing.T) {
	f := newFixture()

	sockA := newFakeSocket()
	doneA := f.connect(sockA)
	sockA.send(t, request.Join{Type: request.JOIN, RoomID: "r1"})
	var joined response.Joined
	sockA.expect(t, &joined)

	sockB := newFakeSocket()
	doneB := f.connect(sockB)
	sockB.send(t, request.Join{Type: request.JOIN, RoomID: "r1"})
	sockB.expect(t, &joined)

	epB := f.engine.Pipelines()[0].Endpoints()[1]
	require.True(t, epB.FireCandidate(media.ICECandidate{Candidate: "candidate:b"}))

	var out response.Candidate
	sockB.expect(t, &out)
	assert.Equal(t, "candidate:b", out.Candidate.Candidate)

	select {
	case raw := <-sockA.out:
		t.Fatalf("candidate leaked to other connection: %s", raw)
	case <-time.After(50 * time.Millisecond):
	}

	sockA.disconnect()
	sockB.disconnect()
	<-doneA
	<-doneB
}
