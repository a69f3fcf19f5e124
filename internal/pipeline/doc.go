// Package pipeline turns a transcript into clips and a clip manifest.
//
// The pipeline has three stages:
//  1. Plan: each subtitle cue becomes a clip request with context padding
//     and a filename derived from its normalized text
//  2. Cut: plans are handed to a media.Cutter by a bounded worker pool
//  3. Record: successful clips are written to clips-metadata.json, which the
//     loader imports into the phrase index
//
// # Basic Usage
//
//	plans := pipeline.PlanClips(cues, pipeline.PlanOptions{
//	    VideoPath: "data/original/ep1.mp4",
//	    ClipsDir:  "data/clips",
//	    Padding:   pipeline.DefaultPadding,
//	    Width:     640,
//	})
//
//	result, err := pipeline.Run(ctx, media.NewFFmpeg("", log), plans, 1, log)
//	if err != nil {
//	    return err
//	}
//	err = pipeline.WriteManifestFile("data/clips-metadata.json", result.Entries)
//
// # Failures
//
// A clip that fails to encode is counted in Statistics.ClipsFailed and left
// out of the manifest; the run continues. Cancelling the context stops the
// run and returns the context error.
package pipeline
