package simulation

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/behavior"
)

// Messages understood by FlockActor. They are protobuf well-known types so
// they travel through the actor system without generated code:
//
//	*durationpb.Duration    advance one tick, the value is the frame delta
//	*wrapperspb.UInt32Value spawn that many boids
//	*emptypb.Empty          clear the flock
//	*structpb.Struct        change the runtime Settings
const (
	settingsBorder    = "border"
	settingsBehaviors = "behaviors"
)

// TickMessage asks the flock to advance by one step.
func TickMessage(dt time.Duration) *durationpb.Duration { return durationpb.New(dt) }

// SpawnMessage asks the flock to add n random boids.
func SpawnMessage(n uint32) *wrapperspb.UInt32Value { return wrapperspb.UInt32(n) }

// ClearMessage asks the flock to drop every boid.
func ClearMessage() *emptypb.Empty { return &emptypb.Empty{} }

// SettingsMessage encodes s as a struct message.
func SettingsMessage(s Settings) (*structpb.Struct, error) {
	names := s.Behaviors.Names()
	list := make([]any, len(names))
	for i, n := range names {
		list[i] = n
	}
	return structpb.NewStruct(map[string]any{
		settingsBorder:    s.Border.String(),
		settingsBehaviors: list,
	})
}

// SettingsFromStruct applies the fields present in st on top of base.
// Missing fields keep their base value.
func SettingsFromStruct(st *structpb.Struct, base Settings) (Settings, error) {
	s := base
	fields := st.GetFields()

	if v, ok := fields[settingsBorder]; ok {
		b, err := ParseBorderPolicy(v.GetStringValue())
		if err != nil {
			return base, err
		}
		s.Border = b
	}

	if v, ok := fields[settingsBehaviors]; ok {
		list := v.GetListValue()
		if list == nil {
			return base, fmt.Errorf("%w: %q must be a list of names", behavior.ErrUnknownBehavior, settingsBehaviors)
		}
		names := make([]string, 0, len(list.GetValues()))
		for _, item := range list.GetValues() {
			names = append(names, item.GetStringValue())
		}
		m, err := behavior.ParseMask(names)
		if err != nil {
			return base, err
		}
		s.Behaviors = m
	}
	return s, nil
}
