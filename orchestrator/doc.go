// Package orchestrator implements the turn scheduler of a group chat.
//
// An Orchestrator owns the shared defaults (logger, history store, metrics)
// and creates Sessions. A Session holds the append-only History, the
// participating agents and the termination State, and moves through
//
//	Idle --SubmitUserMessage--> Running --Step--> Running
//	Running --strategy true | turn count reaches MaxIterations--> Completed
//	Running --fatal agent error--> Aborted
//
// Turns are strictly sequential within one session: Step is serialized, so
// no two agents ever act on the same History at the same time. Independent
// sessions share nothing mutable and may be driven concurrently.
//
// Callers can pull one turn at a time with Step, drive the session to the
// end with RunUntilComplete, or consume a message stream with Run:
//
//	s, err := orch.StartSession([]agent.Agent{director, writer}, orchestrator.Config{
//	    MaxIterations:      10,
//	    AllowedTerminators: []string{"ArtDirector"},
//	})
//	if err != nil {
//	    return err
//	}
//	if err := s.SubmitUserMessage(ctx, "concept for a map of the world"); err != nil {
//	    return err
//	}
//	msgs, errs := s.Run(ctx)
//	for m := range msgs {
//	    fmt.Printf("%s (%s) > %s\n", m.Author, m.Role, m.Content)
//	}
//	if err := <-errs; err != nil {
//	    return err
//	}
package orchestrator
