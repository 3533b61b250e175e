// Package workflow связывает SuperTask с исполнением дочерних job.
//
// SuperTaskWorkflow создаётся один раз на тип SuperTask. Schedule
// запускает дочерний job и ждёт его статуса; ExecuteWorkflow выполняется
// внутри job: строит роутер, вызывает Map и Reduce.
package workflow
