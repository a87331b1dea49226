/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package onvif

import (
	"context"
	"fmt"

	"github.com/carverauto/camview/pkg/models"
)

// Velocity is a PTZ continuous-move vector.
type Velocity struct {
	Pan  float64
	Tilt float64
	Zoom float64
}

// VelocityFor maps a PTZ command name and speed to a move vector. The stop
// command has no vector and reports ok=false.
func VelocityFor(command string, speed float64) (v Velocity, ok bool, err error) {
	switch command {
	case models.PTZMoveUp:
		return Velocity{Tilt: speed}, true, nil
	case models.PTZMoveDown:
		return Velocity{Tilt: -speed}, true, nil
	case models.PTZMoveLeft:
		return Velocity{Pan: -speed}, true, nil
	case models.PTZMoveRight:
		return Velocity{Pan: speed}, true, nil
	case models.PTZZoomIn:
		return Velocity{Zoom: speed}, true, nil
	case models.PTZZoomOut:
		return Velocity{Zoom: -speed}, true, nil
	case models.PTZStop:
		return Velocity{}, false, nil
	default:
		return Velocity{}, false, fmt.Errorf("%w: invalid PTZ command %q", models.ErrValidation, command)
	}
}

// Control applies cmd to sess.
func Control(ctx context.Context, sess Session, cmd models.PTZCommand) error {
	v, move, err := VelocityFor(cmd.Command, cmd.Speed)
	if err != nil {
		return err
	}

	if !move {
		return sess.Stop(ctx)
	}

	return sess.ContinuousMove(ctx, v.Pan, v.Tilt, v.Zoom)
}
